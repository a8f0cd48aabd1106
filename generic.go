package cache

import "context"

// The cache stores values as `any`; these helpers recover the caller's
// type at read time. A type mismatch means the caller stored something
// else under the key; that is a caller error, reported as a miss rather
// than a cache invariant violation.

// Get retrieves the value under key as T. It returns false for a missing
// or expired key, and for a stored value that is not a T.
func Get[T any](c *AdaptiveCache, key string) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// GetOrCompute is the typed variant of AdaptiveCache.GetOrCompute: compute
// runs at most once per key across concurrent callers, and every caller
// receives the same T or the same error.
func GetOrCompute[T any](ctx context.Context, c *AdaptiveCache, key string, compute func(context.Context) (T, error)) (T, error) {
	v, err := c.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		// Another writer stored a different type under this key between
		// the computation and our read of the shared result.
		var zero T
		return zero, &TypeMismatchError{Key: key}
	}
	return t, nil
}

// TypeMismatchError reports a typed read of a key holding another type.
type TypeMismatchError struct {
	Key string
}

func (e *TypeMismatchError) Error() string {
	return "cache: value under key " + e.Key + " has unexpected type"
}

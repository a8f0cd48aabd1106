package types

import "context"

/*
Store is the contract between the cache and an opaque persistent backing
store (a database, an on-device store, a remote API; the cache does not
care which).

The cache never reads through to the Store on an ordinary Get miss; a miss
is a miss. The Store is consulted only on the explicit fallback path
(GetOrLoad) and by write policies that propagate cache writes outward.
*/
type Store interface {

	// Load fetches the value for a key from the backing store.
	// It is called on the explicit fallback path when the cache has no
	// live entry for the key.
	Load(ctx context.Context, key string) (any, error)

	// Put writes a key/value pair back to the backing store.
	//
	// This is used by write policies:
	// - Write-through: write immediately, on the caller's goroutine
	// - Write-back: write asynchronously later
	//
	// It does NOT store anything in the cache itself.
	Put(ctx context.Context, key string, value any) error
}

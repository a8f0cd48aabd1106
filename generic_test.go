package cache

import (
	"context"
	"errors"
	"testing"
)

type session struct {
	UserID string
	Count  int
}

func TestTypedGet(t *testing.T) {
	c := New(Options{DisableBackgroundCleanup: true})
	defer c.Close()

	if err := c.Set(context.Background(), "s1", session{UserID: "u1", Count: 3}); err != nil {
		t.Fatal(err)
	}

	got, ok := Get[session](c, "s1")
	if !ok {
		t.Fatal("expected typed hit")
	}
	if got.UserID != "u1" || got.Count != 3 {
		t.Fatalf("unexpected value: %+v", got)
	}

	if _, ok := Get[session](c, "missing"); ok {
		t.Fatal("missing key reported as hit")
	}
}

func TestTypedGetWrongType(t *testing.T) {
	c := New(Options{DisableBackgroundCleanup: true})
	defer c.Close()

	if err := c.Set(context.Background(), "n", 42); err != nil {
		t.Fatal(err)
	}

	if _, ok := Get[string](c, "n"); ok {
		t.Fatal("int read as string should miss")
	}
	// The untyped read still works.
	if v, ok := c.Get("n"); !ok || v != 42 {
		t.Fatalf("untyped read broken: %v %v", v, ok)
	}
}

func TestTypedGetOrCompute(t *testing.T) {
	c := New(Options{DisableBackgroundCleanup: true})
	defer c.Close()

	calls := 0
	compute := func(ctx context.Context) (session, error) {
		calls++
		return session{UserID: "u2"}, nil
	}

	got, err := GetOrCompute(context.Background(), c, "s2", compute)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u2" {
		t.Fatalf("unexpected value: %+v", got)
	}

	// Second call hits the cache; compute does not run again.
	if _, err := GetOrCompute(context.Background(), c, "s2", compute); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

func TestTypedGetOrComputeError(t *testing.T) {
	c := New(Options{DisableBackgroundCleanup: true})
	defer c.Close()

	boom := errors.New("backend down")
	_, err := GetOrCompute(context.Background(), c, "s3", func(ctx context.Context) (session, error) {
		return session{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
}

func TestTypedGetOrComputeMismatch(t *testing.T) {
	c := New(Options{DisableBackgroundCleanup: true})
	defer c.Close()

	if err := c.Set(context.Background(), "k", "a string"); err != nil {
		t.Fatal(err)
	}

	_, err := GetOrCompute(context.Background(), c, "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})

	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if mismatch.Key != "k" {
		t.Fatalf("unexpected key in error: %q", mismatch.Key)
	}
}

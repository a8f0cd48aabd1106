// Package store holds the entry table.
package store

import (
	"sync/atomic"

	"github.com/krisalay/adaptive-cache/types"
)

/*
Table is the key → entry map behind the cache, implemented copy-on-write:

  - Readers always see an immutable snapshot and never take a lock.
  - Writers build a new map and swap it in atomically. The coordinator
    serializes writers under its own mutex, so the swap never races.

Copy-on-write also gives the maintenance sweep its snapshot for free: the
janitor grabs the current map and scans it while foreground operations keep
publishing new ones, so the sweep never holds the table hostage.
*/
type Table struct {
	data atomic.Value // map[string]*types.CacheEntry
	size atomic.Int64
}

func NewTable() *Table {
	t := &Table{}
	t.data.Store(make(map[string]*types.CacheEntry))
	return t
}

func (t *Table) current() map[string]*types.CacheEntry {
	return t.data.Load().(map[string]*types.CacheEntry)
}

// Get retrieves an entry. Lock-free.
func (t *Table) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := t.current()[key]
	return ent, ok
}

// Put inserts or replaces an entry by publishing a new map.
func (t *Table) Put(key string, ent *types.CacheEntry) {
	old := t.current()
	n := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent
	t.data.Store(n)
	t.size.Store(int64(len(n)))
}

// Delete removes an entry, if present, by publishing a new map.
func (t *Table) Delete(key string) {
	old := t.current()
	if _, ok := old[key]; !ok {
		return
	}
	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}
	t.data.Store(n)
	t.size.Store(int64(len(n)))
}

// DeleteAll removes a batch of keys in one published map, so a sweep of k
// keys costs one copy instead of k.
func (t *Table) DeleteAll(keys []string) {
	if len(keys) == 0 {
		return
	}
	old := t.current()
	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		n[k] = v
	}
	for _, k := range keys {
		delete(n, k)
	}
	t.data.Store(n)
	t.size.Store(int64(len(n)))
}

// Clear replaces the table with an empty map.
func (t *Table) Clear() {
	t.data.Store(make(map[string]*types.CacheEntry))
	t.size.Store(0)
}

// Size returns the number of entries.
func (t *Table) Size() int64 {
	return t.size.Load()
}

// Snapshot returns the current immutable map. Callers may iterate it freely
// but must not mutate it; concurrent writers publish fresh maps instead of
// touching this one.
func (t *Table) Snapshot() map[string]*types.CacheEntry {
	return t.current()
}

// TotalBytes sums the size estimates of all current entries.
func (t *Table) TotalBytes() int64 {
	var total int64
	for _, ent := range t.current() {
		total += ent.SizeBytes
	}
	return total
}

// Package tags maintains the tag → key-set index used for bulk
// invalidation.
package tags

import "sort"

/*
Index maps each tag to the set of keys carrying it, and each key back to its
tags so a key removal can purge every tag set it belongs to in one call.

Invariant: a key appears under tag T iff it was added with T and has not
since been removed. There are no dangling references in either direction.

The index is NOT internally synchronized; the owning cache mutates it under
its own lock, the same lock that guards the entry table.
*/
type Index struct {
	byTag map[string]map[string]struct{}
	byKey map[string]map[string]struct{}
}

func NewIndex() *Index {
	return &Index{
		byTag: make(map[string]map[string]struct{}),
		byKey: make(map[string]map[string]struct{}),
	}
}

// Add registers key under every tag in tags.
func (ix *Index) Add(key string, tags []string) {
	for _, tag := range tags {
		if ix.byTag[tag] == nil {
			ix.byTag[tag] = make(map[string]struct{})
		}
		ix.byTag[tag][key] = struct{}{}

		if ix.byKey[key] == nil {
			ix.byKey[key] = make(map[string]struct{})
		}
		ix.byKey[key][tag] = struct{}{}
	}
}

// Keys returns a sorted snapshot of the keys currently indexed under tag.
// Read-only: no access bookkeeping changes.
func (ix *Index) Keys(tag string) []string {
	set := ix.byTag[tag]
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RemoveKey erases the key from every tag set it belongs to. Safe to call
// for untagged or unknown keys.
func (ix *Index) RemoveKey(key string) {
	for tag := range ix.byKey[key] {
		delete(ix.byTag[tag], key)
		if len(ix.byTag[tag]) == 0 {
			delete(ix.byTag, tag)
		}
	}
	delete(ix.byKey, key)
}

// DropTag clears a tag's entry entirely and returns the keys that were
// indexed under it. The keys themselves keep any other tags they carry.
func (ix *Index) DropTag(tag string) []string {
	keys := ix.Keys(tag)
	for _, k := range keys {
		delete(ix.byKey[k], tag)
		if len(ix.byKey[k]) == 0 {
			delete(ix.byKey, k)
		}
	}
	delete(ix.byTag, tag)
	return keys
}

// Clear drops everything.
func (ix *Index) Clear() {
	ix.byTag = make(map[string]map[string]struct{})
	ix.byKey = make(map[string]map[string]struct{})
}

// Tags returns how many distinct tags are currently indexed.
func (ix *Index) Tags() int { return len(ix.byTag) }

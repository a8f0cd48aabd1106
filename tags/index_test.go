package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndKeys(t *testing.T) {
	ix := NewIndex()

	ix.Add("k1", []string{"users", "admins"})
	ix.Add("k2", []string{"users"})

	assert.Equal(t, []string{"k1", "k2"}, ix.Keys("users"))
	assert.Equal(t, []string{"k1"}, ix.Keys("admins"))
	assert.Empty(t, ix.Keys("ghost"))
}

func TestRemoveKeyPurgesEveryTag(t *testing.T) {
	ix := NewIndex()
	ix.Add("k1", []string{"a", "b", "c"})
	ix.Add("k2", []string{"a"})

	ix.RemoveKey("k1")

	assert.Equal(t, []string{"k2"}, ix.Keys("a"))
	assert.Empty(t, ix.Keys("b"))
	assert.Empty(t, ix.Keys("c"))
	// Emptied tags disappear entirely, no empty-set leaks.
	assert.Equal(t, 1, ix.Tags())
}

func TestRemoveUnknownKeyIsSafe(t *testing.T) {
	ix := NewIndex()
	ix.RemoveKey("ghost")
	assert.Equal(t, 0, ix.Tags())
}

func TestDropTag(t *testing.T) {
	ix := NewIndex()
	ix.Add("k1", []string{"users", "admins"})
	ix.Add("k2", []string{"users"})

	keys := ix.DropTag("users")

	assert.ElementsMatch(t, []string{"k1", "k2"}, keys)
	assert.Empty(t, ix.Keys("users"))
	// k1 keeps its other tag.
	assert.Equal(t, []string{"k1"}, ix.Keys("admins"))
}

func TestClear(t *testing.T) {
	ix := NewIndex()
	ix.Add("k1", []string{"a"})
	ix.Clear()

	assert.Equal(t, 0, ix.Tags())
	assert.Empty(t, ix.Keys("a"))
}

func TestReAddAfterRemove(t *testing.T) {
	ix := NewIndex()
	ix.Add("k1", []string{"a"})
	ix.RemoveKey("k1")
	ix.Add("k1", []string{"b"})

	assert.Empty(t, ix.Keys("a"))
	assert.Equal(t, []string{"k1"}, ix.Keys("b"))
}

// This file implements adaptive-score eviction.

package eviction

import "time"

/*
adaptive picks the victim with the lowest composite score. The score
(computed by the entry itself) rewards priority, access frequency and
freshness and penalizes size, so the cache sheds big, cold, low-priority
entries first.

The recency list serves two purposes here: it remembers which keys are
tracked, and its least-recently-used-first iteration order breaks score
ties in favor of the staler key without comparing timestamps.
*/
type adaptive struct {
	order  *accessOrder
	lookup EntryLookup
}

func newAdaptive(lookup EntryLookup) *adaptive {
	if lookup == nil {
		panic("adaptive eviction requires an entry lookup")
	}
	return &adaptive{
		order:  newAccessOrder(),
		lookup: lookup,
	}
}

func (a *adaptive) OnGet(k string)  { a.order.touch(k) }
func (a *adaptive) OnPut(k string)  { a.order.insert(k) }
func (a *adaptive) Remove(k string) { a.order.drop(k) }

// Evict scans the tracked keys and returns the one with the strictly lowest
// score. Keys whose entry has already vanished from the table are cleaned
// up on the way and never returned.
func (a *adaptive) Evict() string {
	now := time.Now()

	var (
		victim   string
		best     float64
		found    bool
		orphaned []string
	)

	a.order.oldestFirst(func(k string) bool {
		ent := a.lookup(k)
		if ent == nil {
			orphaned = append(orphaned, k)
			return true
		}
		score := ent.AdaptiveScore(now)
		// Strict comparison + oldest-first iteration means ties keep the
		// earlier (least recently used) candidate.
		if !found || score < best {
			victim, best, found = k, score, true
		}
		return true
	})

	for _, k := range orphaned {
		a.order.drop(k)
	}
	if !found {
		return ""
	}
	a.order.drop(victim)
	return victim
}

// Package metrics exports cache lifecycle events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/adaptive-cache/types"
)

// Prometheus implements types.Metrics on top of prometheus counters. Every
// method is a single atomic increment, cheap enough for the hot path.
type Prometheus struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter
	refreshes   prometheus.Counter
}

var _ types.Metrics = (*Prometheus)(nil)

// NewPrometheus registers the cache counters with reg. namespace becomes
// the metric prefix, e.g. "myapp" → myapp_cache_hits_total.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		})
	}

	return &Prometheus{
		hits:        counter("hits_total", "Reads served from a live cache entry."),
		misses:      counter("misses_total", "Reads of absent or expired keys."),
		evictions:   counter("evictions_total", "Entries removed to stay within capacity."),
		expirations: counter("expirations_total", "Entries removed because their TTL elapsed."),
		refreshes:   counter("refreshes_total", "Read-path refresh hook invocations."),
	}
}

func (p *Prometheus) Hit()      { p.hits.Inc() }
func (p *Prometheus) Miss()     { p.misses.Inc() }
func (p *Prometheus) Eviction() { p.evictions.Inc() }
func (p *Prometheus) Expire()   { p.expirations.Inc() }
func (p *Prometheus) Refresh()  { p.refreshes.Inc() }

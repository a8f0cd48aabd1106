package types

// This file defines how the cache reports what it is doing.

/*
Metrics receives one callback per cache lifecycle event. The cache calls
these methods inline on the operation path, so implementations must be
cheap and must never block.

Quantitative accounting (hit rate, average access age) lives in the stats
package; this interface is for exporting events to external sinks such as
Prometheus (see the metrics package).
*/
type Metrics interface {

	// Hit is called when the cache returns a live value.
	Hit()

	// Miss is called when a key is absent or expired.
	Miss()

	// Eviction is called when a key is removed to make room.
	Eviction()

	// Expire is called when a key is removed because its TTL elapsed.
	Expire()

	// Refresh is called when a read-path refresh hook is triggered.
	Refresh()
}

// NoopMetrics ignores all events. It is the default so callers that do not
// care about metrics never pay for nil checks on the hot path.
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Eviction() {}
func (NoopMetrics) Expire()   {}
func (NoopMetrics) Refresh()  {}

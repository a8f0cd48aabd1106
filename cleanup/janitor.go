// Package cleanup runs periodic background maintenance over registered
// cache systems: expired-entry sweeps, score-based optimization, and a
// rolling diagnostic event log.
package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Maintenance cadence.
const (
	// DefaultInterval is how often the background pass runs.
	DefaultInterval = time.Minute

	// optimizeEveryNRuns triggers optimization on every Nth background run.
	optimizeEveryNRuns = 10

	// optimizeMaxGap triggers optimization when this much time has passed
	// since the last one, regardless of run count.
	optimizeMaxGap = 10 * time.Minute
)

// Event log bounds. The age prune and the count cap are independent: a
// burst of events is cut to maxEvents immediately, quiet periods lose
// events once they turn an hour old.
const (
	maxEvents   = 100
	eventMaxAge = time.Hour
)

// System is a cache that the janitor maintains. Each system removes its own
// expired entries and reports how many went away.
type System interface {
	Name() string
	RemoveExpired() int
}

// Optimizable marks systems that support score-based optimization. The
// janitor probes for this capability with a type assertion; systems that
// don't declare it are simply never optimized.
type Optimizable interface {
	Optimize() error
}

// EventKind classifies diagnostic events.
type EventKind string

const (
	EventExpired      EventKind = "expired"
	EventOptimization EventKind = "optimization"
	EventBackground   EventKind = "background"
	EventError        EventKind = "error"
)

// Event is one record in the rolling diagnostic log.
type Event struct {
	Kind    EventKind `json:"kind"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Result is the outcome of one synchronous maintenance pass.
type Result struct {
	Success        bool
	ExpiredRemoved int
	Duration       time.Duration
	Errors         []string
}

// Stats summarizes the janitor's history.
type Stats struct {
	Runs             int64
	ExpiredRemoved   int64
	LastRun          time.Time
	LastOptimization time.Time
	Running          bool
	Events           int
}

/*
Janitor owns background maintenance for one or more cache systems.

Lifecycle is a simple state machine: Stopped → Running (Start) → Stopped
(Stop or the owning cache's Close). While running, a ticker fires a
maintenance pass every interval. Failures inside a pass are recorded as
error events and logged; they never propagate and never stop the ticker.
The next tick fires regardless.

Serve implements suture.Service, so the janitor can also run under a
supervisor instead of managing its own goroutine.
*/
type Janitor struct {
	interval time.Duration
	log      zerolog.Logger

	mu           sync.Mutex
	systems      []System
	events       []Event
	runs         int64
	expiredTotal int64
	lastRun      time.Time
	lastOptimize time.Time
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewJanitor builds a stopped janitor. A non-positive interval falls back
// to DefaultInterval.
func NewJanitor(interval time.Duration, log zerolog.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Janitor{interval: interval, log: log}
}

// Register adds a cache system to the maintenance rotation.
func (j *Janitor) Register(sys System) {
	j.mu.Lock()
	j.systems = append(j.systems, sys)
	j.mu.Unlock()
}

// Start moves the janitor to Running, spawning its own service goroutine.
// Starting a running janitor is a no-op. Callers who run the janitor under
// a supervisor (see Serve) must not also call Start.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		_ = j.Serve(ctx)
	}(j.done)
}

// Stop moves the janitor back to Stopped and waits for the in-flight pass,
// if any, to finish. Stopping a stopped janitor is a no-op.
func (j *Janitor) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports the lifecycle state.
func (j *Janitor) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// Serve runs maintenance ticks until ctx is canceled. It satisfies
// suture.Service: returning ctx.Err() tells the supervisor this was an
// orderly shutdown.
func (j *Janitor) Serve(ctx context.Context) error {
	j.mu.Lock()
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.runBackground()
		}
	}
}

// runBackground is one timer-driven pass. Panics and errors are contained
// here so the tick loop survives anything a sweep does.
func (j *Janitor) runBackground() {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("background cleanup panicked: %v", r)
			j.log.Error().Str("panic", fmt.Sprint(r)).Msg("background cleanup panicked")
			j.appendEvent(EventError, msg)
		}
	}()

	j.mu.Lock()
	j.runs++
	run := j.runs
	optimize := run%optimizeEveryNRuns == 0 ||
		time.Since(j.lastOptimize) >= optimizeMaxGap
	j.mu.Unlock()

	res := j.runPass(optimize)

	j.log.Debug().
		Int64("run", run).
		Int("expired_removed", res.ExpiredRemoved).
		Dur("duration", res.Duration).
		Bool("optimized", optimize).
		Msg("background cleanup pass")
}

/*
ForceCleanup performs one maintenance pass synchronously, on the caller's
goroutine, and reports what happened. The background ticker is unaffected.
*/
func (j *Janitor) ForceCleanup(includeOptimization bool) Result {
	return j.runPass(includeOptimization)
}

func (j *Janitor) runPass(optimize bool) Result {
	start := time.Now()
	res := Result{Success: true}

	j.mu.Lock()
	systems := make([]System, len(j.systems))
	copy(systems, j.systems)
	j.mu.Unlock()

	// 1. Expired-entry removal across every registered system. One system
	// failing must not stop the others.
	for _, sys := range systems {
		removed, err := j.sweepSystem(sys)
		if err != nil {
			res.Success = false
			res.Errors = append(res.Errors, err.Error())
			j.appendEvent(EventError, err.Error())
			continue
		}
		res.ExpiredRemoved += removed
	}
	if res.ExpiredRemoved > 0 {
		j.appendEvent(EventExpired,
			fmt.Sprintf("removed %d expired entries", res.ExpiredRemoved))
	}

	// 2. Optional score-based optimization for systems that support it.
	if optimize {
		for _, sys := range systems {
			opt, ok := sys.(Optimizable)
			if !ok {
				continue
			}
			if err := j.optimizeSystem(sys.Name(), opt); err != nil {
				res.Success = false
				res.Errors = append(res.Errors, err.Error())
				j.appendEvent(EventError, err.Error())
			}
		}
		j.mu.Lock()
		j.lastOptimize = time.Now()
		j.mu.Unlock()
		j.appendEvent(EventOptimization, "cache optimization completed")
	}

	res.Duration = time.Since(start)

	// 3. Prune stale events, then 4. append the pass summary.
	j.mu.Lock()
	j.pruneEventsLocked(time.Now())
	j.expiredTotal += int64(res.ExpiredRemoved)
	j.lastRun = time.Now()
	j.mu.Unlock()

	j.appendEvent(EventBackground, fmt.Sprintf(
		"cleanup pass removed %d entries in %s", res.ExpiredRemoved, res.Duration))

	return res
}

// sweepSystem isolates one system's sweep so a panic inside it becomes an
// error for that system only.
func (j *Janitor) sweepSystem(sys System) (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup: sweep of %s panicked: %v", sys.Name(), r)
		}
	}()
	return sys.RemoveExpired(), nil
}

func (j *Janitor) optimizeSystem(name string, opt Optimizable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup: optimize of %s panicked: %v", name, r)
		}
	}()
	if e := opt.Optimize(); e != nil {
		return fmt.Errorf("cleanup: optimize of %s: %w", name, e)
	}
	return nil
}

func (j *Janitor) appendEvent(kind EventKind, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, Event{Kind: kind, Time: time.Now(), Message: msg})
	if over := len(j.events) - maxEvents; over > 0 {
		j.events = append([]Event(nil), j.events[over:]...)
	}
}

// pruneEventsLocked drops events older than eventMaxAge. Caller holds j.mu.
func (j *Janitor) pruneEventsLocked(now time.Time) {
	cutoff := now.Add(-eventMaxAge)
	kept := j.events[:0]
	for _, ev := range j.events {
		if ev.Time.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	j.events = kept
}

// Report returns a copy of the rolling event log, oldest first.
func (j *Janitor) Report() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out
}

// CurrentStats summarizes maintenance history.
func (j *Janitor) CurrentStats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Stats{
		Runs:             j.runs,
		ExpiredRemoved:   j.expiredTotal,
		LastRun:          j.lastRun,
		LastOptimization: j.lastOptimize,
		Running:          j.running,
		Events:           len(j.events),
	}
}

package cleanup

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSystem is a maintainable system with scriptable behavior.
type fakeSystem struct {
	name      string
	expired   int
	sweeps    int
	optimizes int
	optimize  error
	panicOn   bool
}

func (f *fakeSystem) Name() string { return f.name }

func (f *fakeSystem) RemoveExpired() int {
	f.sweeps++
	if f.panicOn {
		panic("sweep blew up")
	}
	return f.expired
}

func (f *fakeSystem) Optimize() error {
	f.optimizes++
	return f.optimize
}

// plainSystem has no Optimize method at all.
type plainSystem struct{ sweeps int }

func (p *plainSystem) Name() string       { return "plain" }
func (p *plainSystem) RemoveExpired() int { p.sweeps++; return 0 }

func newTestJanitor(interval time.Duration) *Janitor {
	return NewJanitor(interval, zerolog.Nop())
}

func TestForceCleanupSweepsAllSystems(t *testing.T) {
	j := newTestJanitor(time.Minute)
	a := &fakeSystem{name: "a", expired: 3}
	b := &fakeSystem{name: "b", expired: 2}
	j.Register(a)
	j.Register(b)

	res := j.ForceCleanup(false)

	assert.True(t, res.Success)
	assert.Equal(t, 5, res.ExpiredRemoved)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, a.sweeps)
	assert.Equal(t, 1, b.sweeps)
	assert.Zero(t, a.optimizes, "optimization was not requested")
}

func TestForceCleanupWithOptimization(t *testing.T) {
	j := newTestJanitor(time.Minute)
	sys := &fakeSystem{name: "a"}
	j.Register(sys)
	j.Register(&plainSystem{}) // must be skipped, not fail

	res := j.ForceCleanup(true)

	assert.True(t, res.Success)
	assert.Equal(t, 1, sys.optimizes)
	assert.False(t, j.CurrentStats().LastOptimization.IsZero())
}

func TestOptimizeErrorIsRecorded(t *testing.T) {
	j := newTestJanitor(time.Minute)
	j.Register(&fakeSystem{name: "a", optimize: errors.New("index rebuild failed")})

	res := j.ForceCleanup(true)

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "index rebuild failed")

	var sawError bool
	for _, ev := range j.Report() {
		if ev.Kind == EventError {
			sawError = true
		}
	}
	assert.True(t, sawError, "error event should be in the log")
}

func TestSweepPanicIsolatedPerSystem(t *testing.T) {
	j := newTestJanitor(time.Minute)
	bad := &fakeSystem{name: "bad", panicOn: true}
	good := &fakeSystem{name: "good", expired: 4}
	j.Register(bad)
	j.Register(good)

	res := j.ForceCleanup(false)

	assert.False(t, res.Success)
	assert.Equal(t, 4, res.ExpiredRemoved, "healthy system still swept")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "bad")
}

func TestEventLogCap(t *testing.T) {
	j := newTestJanitor(time.Minute)
	j.Register(&fakeSystem{name: "a", expired: 1})

	for i := 0; i < maxEvents+50; i++ {
		j.ForceCleanup(false)
	}

	events := j.Report()
	assert.LessOrEqual(t, len(events), maxEvents)

	// Oldest first, and the retained tail is the most recent.
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Time.Before(events[i-1].Time))
	}
}

func TestEventAgePrune(t *testing.T) {
	j := newTestJanitor(time.Minute)
	j.Register(&fakeSystem{name: "a"})

	// Plant a stale event directly, then run a pass to trigger the prune.
	j.mu.Lock()
	j.events = append(j.events, Event{
		Kind:    EventBackground,
		Time:    time.Now().Add(-2 * time.Hour),
		Message: "ancient history",
	})
	j.mu.Unlock()

	j.ForceCleanup(false)

	for _, ev := range j.Report() {
		assert.NotEqual(t, "ancient history", ev.Message)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	j := newTestJanitor(5 * time.Millisecond)
	sys := &fakeSystem{name: "a"}
	j.Register(sys)

	assert.False(t, j.Running())

	j.Start()
	j.Start() // idempotent

	require.Eventually(t, func() bool {
		return j.CurrentStats().Runs > 0
	}, time.Second, time.Millisecond)
	assert.True(t, j.Running())

	j.Stop()
	j.Stop() // idempotent
	assert.False(t, j.Running())

	runs := j.CurrentStats().Runs
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, runs, j.CurrentStats().Runs, "no passes after Stop")
}

func TestRestartAfterStop(t *testing.T) {
	j := newTestJanitor(5 * time.Millisecond)
	j.Register(&fakeSystem{name: "a"})

	j.Start()
	require.Eventually(t, func() bool { return j.CurrentStats().Runs > 0 },
		time.Second, time.Millisecond)
	j.Stop()

	runs := j.CurrentStats().Runs
	j.Start()
	require.Eventually(t, func() bool { return j.CurrentStats().Runs > runs },
		time.Second, time.Millisecond)
	j.Stop()
}

func TestStatsAccumulate(t *testing.T) {
	j := newTestJanitor(time.Minute)
	j.Register(&fakeSystem{name: "a", expired: 2})

	j.ForceCleanup(false)
	j.ForceCleanup(false)

	st := j.CurrentStats()
	assert.EqualValues(t, 4, st.ExpiredRemoved)
	assert.False(t, st.LastRun.IsZero())
	assert.True(t, st.LastOptimization.IsZero())
}

func TestReportReturnsCopy(t *testing.T) {
	j := newTestJanitor(time.Minute)
	j.Register(&fakeSystem{name: "a", expired: 1})
	j.ForceCleanup(false)

	report := j.Report()
	require.NotEmpty(t, report)
	report[0].Message = "tampered"

	assert.NotEqual(t, "tampered", j.Report()[0].Message)
}

func TestResultDurationAndSummaryEvent(t *testing.T) {
	j := newTestJanitor(time.Minute)
	j.Register(&fakeSystem{name: "a", expired: 7})

	res := j.ForceCleanup(false)
	assert.Greater(t, res.Duration, time.Duration(0))

	events := j.Report()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventBackground, last.Kind)
	assert.Contains(t, last.Message, fmt.Sprintf("removed %d entries", 7))
}

package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEventSource is safe for use from the scheduler goroutine.
type countingEventSource struct {
	mu    sync.Mutex
	calls int
}

func (s *countingEventSource) QueryUpcoming(ctx context.Context, now time.Time, lookahead time.Duration) ([]UpcomingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil, nil
}

func (s *countingEventSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestScheduler(source EventSource) *Scheduler {
	return &Scheduler{
		dispatcher:    NewDispatcher(source, NewMemoryFeedStore(), nil),
		dispatchEvery: 10 * time.Millisecond,
		gcEvery:       10 * time.Millisecond,
		nowFn:         time.Now,
	}
}

func TestSchedulerRunsImmediatePass(t *testing.T) {
	source := &countingEventSource{}
	s := newTestScheduler(source)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return source.count() >= 1 },
		time.Second, time.Millisecond, "first pass should run without waiting a full interval")
}

func TestSchedulerTicksPeriodically(t *testing.T) {
	source := &countingEventSource{}
	s := newTestScheduler(source)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return source.count() >= 3 },
		time.Second, time.Millisecond)
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	source := &countingEventSource{}
	s := newTestScheduler(source)

	s.Start()
	s.Start()
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return source.count() >= 2 },
		time.Second, time.Millisecond)

	// A second Start must not have spawned a second loop; after stopping,
	// the pass count settles
	s.Stop()
	settled := source.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, source.count())
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	source := &countingEventSource{}
	s := newTestScheduler(source)

	// Stopping a never-started scheduler is a no-op
	s.Stop()

	s.Start()
	require.Eventually(t, func() bool { return source.count() >= 1 },
		time.Second, time.Millisecond)

	s.Stop()
	s.Stop()

	settled := source.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, source.count(), "no passes after Stop")
}

func TestSchedulerRestarts(t *testing.T) {
	source := &countingEventSource{}
	s := newTestScheduler(source)

	s.Start()
	require.Eventually(t, func() bool { return source.count() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	before := source.count()
	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return source.count() > before },
		time.Second, time.Millisecond, "scheduler should resume after a restart")
}

// panickingSource blows up on the first query only.
type panickingSource struct {
	countingEventSource
	once sync.Once
}

func (s *panickingSource) QueryUpcoming(ctx context.Context, now time.Time, lookahead time.Duration) ([]UpcomingEvent, error) {
	panicked := false
	s.once.Do(func() {
		panicked = true
	})
	if panicked {
		panic("bad tick")
	}
	return s.countingEventSource.QueryUpcoming(ctx, now, lookahead)
}

func TestSchedulerSurvivesPanickingPass(t *testing.T) {
	source := &panickingSource{}
	s := newTestScheduler(source)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return source.count() >= 2 },
		time.Second, time.Millisecond, "loop must keep ticking after a panicking pass")
}

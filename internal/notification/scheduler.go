package notification

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	// DispatchInterval is how often the dispatcher scans for due reminders.
	DispatchInterval = 5 * time.Minute
	// GCInterval is how often stale dedup entries are collected.
	GCInterval = time.Hour
)

// Scheduler owns the lifecycle of the periodic dispatch and dedup-GC
// activities. Start and Stop are idempotent; at most one loop runs at a time.
type Scheduler struct {
	dispatcher    *Dispatcher
	dispatchEvery time.Duration
	gcEvery       time.Duration
	nowFn         func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates a scheduler with the standard intervals.
func NewScheduler(dispatcher *Dispatcher) *Scheduler {
	return &Scheduler{
		dispatcher:    dispatcher,
		dispatchEvery: DispatchInterval,
		gcEvery:       GCInterval,
		nowFn:         time.Now,
	}
}

// Start begins the periodic loop. The first dispatch pass runs immediately so
// effects are observable without waiting a full interval. A no-op when
// already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
	log.Printf("Reminder scheduler started (dispatch every %v, GC every %v)", s.dispatchEvery, s.gcEvery)
}

// Stop halts the periodic loop, letting any in-flight pass complete. A no-op
// when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.done = nil
	log.Printf("Reminder scheduler stopped")
}

// run drives both periodic activities from a single goroutine, so two
// dispatch passes can never overlap; a pass that outlasts its interval simply
// absorbs the missed tick.
func (s *Scheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	dispatchTicker := time.NewTicker(s.dispatchEvery)
	defer dispatchTicker.Stop()
	gcTicker := time.NewTicker(s.gcEvery)
	defer gcTicker.Stop()

	s.safely("dispatch", func() {
		s.dispatcher.RunDispatchPass(context.Background(), s.nowFn())
	})

	for {
		select {
		case <-stop:
			return
		case <-dispatchTicker.C:
			s.safely("dispatch", func() {
				s.dispatcher.RunDispatchPass(context.Background(), s.nowFn())
			})
		case <-gcTicker.C:
			s.safely("dedup GC", func() {
				if removed := s.dispatcher.CollectDedup(s.nowFn()); removed > 0 {
					log.Printf("Reminder dedup GC removed %d stale entries", removed)
				}
			})
		}
	}
}

// safely keeps a panicking pass from killing the scheduler loop.
func (s *Scheduler) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error: panic in scheduler %s pass: %v", name, r)
		}
	}()
	fn()
}

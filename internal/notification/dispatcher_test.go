package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventSource serves a fixed event list filtered by the query window.
type fakeEventSource struct {
	events []UpcomingEvent
	err    error
	calls  int
}

func (s *fakeEventSource) QueryUpcoming(ctx context.Context, now time.Time, lookahead time.Duration) ([]UpcomingEvent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []UpcomingEvent
	for _, ev := range s.events {
		if !ev.StartsAt.Before(now) && ev.StartsAt.Before(now.Add(lookahead)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// failingFeedStore rejects appends for one user and delegates the rest.
type failingFeedStore struct {
	*MemoryFeedStore
	failFor string
}

func (s *failingFeedStore) Append(username string, draft Draft) (Notification, error) {
	if username == s.failFor {
		return Notification{}, errors.New("store unavailable")
	}
	return s.MemoryFeedStore.Append(username, draft)
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendEventReminder(ev UpcomingEvent, minutesUntil int) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, ev.ID)
	return nil
}

func intPtr(i int) *int { return &i }

func TestDispatchIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{events: []UpcomingEvent{
		{ID: "E1", Username: "u1", Title: "Algebra review", StartsAt: now.Add(10 * time.Minute), ReminderMinutes: intPtr(15)},
	}}
	store := NewMemoryFeedStore()
	d := NewDispatcher(source, store, nil)

	d.RunDispatchPass(context.Background(), now)

	feed := store.List("u1", false)
	require.Len(t, feed, 1)
	assert.Equal(t, CategoryReminder, feed[0].Category)
	assert.Equal(t, "E1", feed[0].EventID)
	assert.Contains(t, feed[0].Message, "10 minutes")
	assert.False(t, feed[0].Read)

	// Same tick again: nothing new
	d.RunDispatchPass(context.Background(), now)
	assert.Len(t, store.List("u1", false), 1)

	// 20 minutes later the event has started and left the query window;
	// still nothing new
	d.RunDispatchPass(context.Background(), now.Add(20*time.Minute))
	assert.Len(t, store.List("u1", false), 1)
}

func TestLeadTimeBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		startsIn     time.Duration
		reminderMins int
		wantReminder bool
	}{
		{"exactly at lead time", 15 * time.Minute, 15, true},
		{"one minute past threshold", 14 * time.Minute, 15, true},
		{"one minute early", 16 * time.Minute, 15, false},
		{"well outside lead time", 29 * time.Minute, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeEventSource{events: []UpcomingEvent{
				{ID: "E1", Username: "u1", Title: "Session", StartsAt: now.Add(tt.startsIn), ReminderMinutes: intPtr(tt.reminderMins)},
			}}
			store := NewMemoryFeedStore()
			d := NewDispatcher(source, store, nil)

			d.RunDispatchPass(context.Background(), now)

			if tt.wantReminder {
				assert.Len(t, store.List("u1", false), 1)
			} else {
				assert.Empty(t, store.List("u1", false))
			}
		})
	}
}

func TestNilReminderMinutesIsSkipped(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{events: []UpcomingEvent{
		{ID: "E1", Username: "u1", Title: "No reminder", StartsAt: now.Add(5 * time.Minute)},
	}}
	store := NewMemoryFeedStore()
	d := NewDispatcher(source, store, nil)

	d.RunDispatchPass(context.Background(), now)
	assert.Empty(t, store.List("u1", false))
	assert.Zero(t, d.DedupSize())
}

func TestTwoEventsDueForSameUser(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{events: []UpcomingEvent{
		{ID: "E1", Username: "u1", Title: "First", StartsAt: now.Add(5 * time.Minute), ReminderMinutes: intPtr(10)},
		{ID: "E2", Username: "u1", Title: "Second", StartsAt: now.Add(8 * time.Minute), ReminderMinutes: intPtr(10)},
	}}
	store := NewMemoryFeedStore()
	d := NewDispatcher(source, store, nil)

	d.RunDispatchPass(context.Background(), now)

	feed := store.List("u1", false)
	require.Len(t, feed, 2)
	// Newest first reflects processing order within the pass
	assert.Equal(t, "E2", feed[0].EventID)
	assert.Equal(t, "E1", feed[1].EventID)
}

func TestModuleTitleAppearsInMessage(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{events: []UpcomingEvent{
		{ID: "E1", Username: "u1", Title: "Laplace transforms", ModuleTitle: "Calculus II",
			StartsAt: now.Add(10 * time.Minute), ReminderMinutes: intPtr(15)},
	}}
	store := NewMemoryFeedStore()
	d := NewDispatcher(source, store, nil)

	d.RunDispatchPass(context.Background(), now)

	feed := store.List("u1", false)
	require.Len(t, feed, 1)
	assert.Contains(t, feed[0].Message, "Laplace transforms")
	assert.Contains(t, feed[0].Message, "Calculus II")
}

func TestSourceErrorSkipsTickAndSelfHeals(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{
		events: []UpcomingEvent{
			{ID: "E1", Username: "u1", Title: "Session", StartsAt: now.Add(5 * time.Minute), ReminderMinutes: intPtr(10)},
		},
		err: errors.New("connection refused"),
	}
	store := NewMemoryFeedStore()
	d := NewDispatcher(source, store, nil)

	d.RunDispatchPass(context.Background(), now)
	assert.Empty(t, store.List("u1", false))
	assert.Zero(t, d.DedupSize())

	// Source recovers; the next tick picks the event up
	source.err = nil
	d.RunDispatchPass(context.Background(), now.Add(time.Minute))
	assert.Len(t, store.List("u1", false), 1)
}

func TestPerEventFailureDoesNotAbortPass(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{events: []UpcomingEvent{
		{ID: "E1", Username: "broken", Title: "First", StartsAt: now.Add(5 * time.Minute), ReminderMinutes: intPtr(10)},
		{ID: "E2", Username: "u2", Title: "Second", StartsAt: now.Add(6 * time.Minute), ReminderMinutes: intPtr(10)},
	}}
	store := &failingFeedStore{MemoryFeedStore: NewMemoryFeedStore(), failFor: "broken"}
	d := NewDispatcher(source, store, nil)

	d.RunDispatchPass(context.Background(), now)

	// The second event still went through
	assert.Len(t, store.List("u2", false), 1)
	// Only the successful dispatch was recorded for dedup
	assert.Equal(t, 1, d.DedupSize())

	// Once the store recovers, the failed event is retried and delivered
	store.failFor = ""
	d.RunDispatchPass(context.Background(), now.Add(time.Minute))
	assert.Len(t, store.List("broken", false), 1)
	assert.Len(t, store.List("u2", false), 1, "already-dispatched event must not repeat")
}

func TestMailerFailureDoesNotBlockDispatch(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{events: []UpcomingEvent{
		{ID: "E1", Username: "u1", Title: "Session", StartsAt: now.Add(5 * time.Minute), ReminderMinutes: intPtr(10)},
	}}
	store := NewMemoryFeedStore()
	mailer := &fakeMailer{err: errors.New("smtp down")}
	d := NewDispatcher(source, store, mailer)

	d.RunDispatchPass(context.Background(), now)

	assert.Len(t, store.List("u1", false), 1)
	assert.Equal(t, 1, d.DedupSize(), "email failure must not cause a re-send next tick")
}

func TestMailerReceivesDueEvents(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &fakeEventSource{events: []UpcomingEvent{
		{ID: "E1", Username: "u1", Title: "Session", StartsAt: now.Add(5 * time.Minute), ReminderMinutes: intPtr(10)},
	}}
	store := NewMemoryFeedStore()
	mailer := &fakeMailer{}
	d := NewDispatcher(source, store, mailer)

	d.RunDispatchPass(context.Background(), now)
	d.RunDispatchPass(context.Background(), now)

	assert.Equal(t, []string{"E1"}, mailer.sent)
}

func TestCollectDedupDropsStaleEntries(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	var events []UpcomingEvent
	for i := 0; i < 5; i++ {
		events = append(events, UpcomingEvent{
			ID:              fmt.Sprintf("E%d", i),
			Username:        "u1",
			Title:           "Session",
			StartsAt:        now.Add(time.Duration(i+1) * time.Minute),
			ReminderMinutes: intPtr(10),
		})
	}
	source := &fakeEventSource{events: events}
	store := NewMemoryFeedStore()
	d := NewDispatcher(source, store, nil)

	d.RunDispatchPass(context.Background(), now)
	require.Equal(t, 5, d.DedupSize())

	// All events started less than a lookahead ago: nothing to collect
	assert.Zero(t, d.CollectDedup(now.Add(10*time.Minute)))
	assert.Equal(t, 5, d.DedupSize())

	// Well past start + lookahead: every entry is dead
	assert.Equal(t, 5, d.CollectDedup(now.Add(2*time.Hour)))
	assert.Zero(t, d.DedupSize())
}

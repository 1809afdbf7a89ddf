package notification

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// Lookahead is the horizon ahead of "now" within which events are considered
// for reminder evaluation.
const Lookahead = 30 * time.Minute

// UpcomingEvent is the read-only projection of a learning event the
// dispatcher consumes. The event store owns the full record.
type UpcomingEvent struct {
	ID              string
	Username        string
	Title           string
	StartsAt        time.Time
	ReminderMinutes *int
	ModuleTitle     string
}

// EventSource queries reminder-eligible events (planned, not deleted) whose
// start falls within [now, now+lookahead).
type EventSource interface {
	QueryUpcoming(ctx context.Context, now time.Time, lookahead time.Duration) ([]UpcomingEvent, error)
}

// Mailer delivers a reminder out-of-band (email). Delivery is best-effort and
// never affects dedup bookkeeping.
type Mailer interface {
	SendEventReminder(ev UpcomingEvent, minutesUntil int) error
}

// Dispatcher decides once per tick which events need a reminder "now" and
// emits exactly one notification per (event, reminder minutes) pair.
type Dispatcher struct {
	source EventSource
	store  FeedStore
	mailer Mailer // optional

	mu         sync.Mutex
	dispatched map[string]time.Time // dedup key -> event start
}

// NewDispatcher creates a dispatcher; mailer may be nil to disable emails.
func NewDispatcher(source EventSource, store FeedStore, mailer Mailer) *Dispatcher {
	return &Dispatcher{
		source:     source,
		store:      store,
		mailer:     mailer,
		dispatched: make(map[string]time.Time),
	}
}

// RunDispatchPass scans upcoming events and emits due reminders. A source
// failure skips the whole tick (the next tick re-evaluates the same events);
// a failure on one event never aborts the others.
func (d *Dispatcher) RunDispatchPass(ctx context.Context, now time.Time) {
	events, err := d.source.QueryUpcoming(ctx, now, Lookahead)
	if err != nil {
		log.Printf("Warning: reminder dispatch: failed to query upcoming events: %v", err)
		return
	}

	for _, ev := range events {
		if ev.ReminderMinutes == nil {
			continue
		}

		minutesUntil := int(math.Round(ev.StartsAt.Sub(now).Minutes()))
		if minutesUntil > *ev.ReminderMinutes {
			continue // not yet inside the reminder lead time
		}

		key := dedupKey(ev.ID, *ev.ReminderMinutes)
		if d.alreadyDispatched(key) {
			continue
		}

		if err := d.emit(ev, minutesUntil); err != nil {
			// Dedup records successful dispatch only, so the next tick retries.
			log.Printf("Warning: reminder dispatch: failed to notify %s for event %s: %v", ev.Username, ev.ID, err)
			continue
		}
		d.recordDispatched(key, ev.StartsAt)
	}
}

// emit appends the feed notification and fires the optional reminder email.
func (d *Dispatcher) emit(ev UpcomingEvent, minutesUntil int) error {
	message := fmt.Sprintf("Your session '%s' starts in %d minutes.", ev.Title, minutesUntil)
	if ev.ModuleTitle != "" {
		message = fmt.Sprintf("Your session '%s' (%s) starts in %d minutes.", ev.Title, ev.ModuleTitle, minutesUntil)
	}

	if _, err := d.store.Append(ev.Username, Draft{
		Title:    "Upcoming session reminder",
		Message:  message,
		Category: CategoryReminder,
		EventID:  ev.ID,
	}); err != nil {
		return err
	}

	if d.mailer != nil {
		if err := d.mailer.SendEventReminder(ev, minutesUntil); err != nil {
			log.Printf("Warning: reminder dispatch: failed to email %s for event %s: %v", ev.Username, ev.ID, err)
		}
	}
	return nil
}

func dedupKey(eventID string, reminderMinutes int) string {
	return fmt.Sprintf("%s:%d", eventID, reminderMinutes)
}

func (d *Dispatcher) alreadyDispatched(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.dispatched[key]
	return ok
}

func (d *Dispatcher) recordDispatched(key string, startsAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched[key] = startsAt
}

// CollectDedup drops dedup entries for events that started more than the
// lookahead window before now. Such events can never appear in another
// upcoming-events query, so their keys are dead weight. Returns the number
// of entries removed.
func (d *Dispatcher) CollectDedup(now time.Time) int {
	cutoff := now.Add(-Lookahead)

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, startsAt := range d.dispatched {
		if startsAt.Before(cutoff) {
			delete(d.dispatched, key)
			removed++
		}
	}
	return removed
}

// DedupSize reports how many dedup entries are currently retained.
func (d *Dispatcher) DedupSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dispatched)
}

package notification

import (
	"sync"
	"time"
)

// DefaultMaxFeedSize is how many notifications a user's feed retains before
// the oldest entries are dropped.
const DefaultMaxFeedSize = 50

// FeedStore maintains one bounded, newest-first notification feed per user.
// The in-memory implementation below is the only one today; the interface is
// the seam for a durable backing without touching the dispatcher or handlers.
type FeedStore interface {
	// Append creates a notification from the draft and inserts it at the
	// front of the user's feed, evicting the oldest entry past the size cap.
	Append(username string, draft Draft) (Notification, error)
	// List returns the feed newest-first, optionally filtered to unread.
	// Unknown users get an empty slice, never an error.
	List(username string, unreadOnly bool) []Notification
	// MarkRead flips the read flag on one notification. Returns false only
	// when the user has no feed or the id is absent; re-marking an already
	// read notification still returns true.
	MarkRead(username, notificationID string) bool
	// MarkAllRead marks every unread notification read and returns how many
	// actually changed.
	MarkAllRead(username string) int
}

type userFeed struct {
	mu      sync.Mutex
	entries []Notification // newest first
}

// MemoryFeedStore keeps all feeds in process memory. Feed contents and the
// dispatcher's dedup state are lost on restart, so an event still inside its
// reminder lead time at restart can be reminded twice.
type MemoryFeedStore struct {
	maxSize int
	nowFn   func() time.Time

	mu    sync.RWMutex
	feeds map[string]*userFeed
}

// NewMemoryFeedStore creates a feed store with the default size cap.
func NewMemoryFeedStore() *MemoryFeedStore {
	return &MemoryFeedStore{
		maxSize: DefaultMaxFeedSize,
		nowFn:   time.Now,
		feeds:   make(map[string]*userFeed),
	}
}

// feed returns the user's feed, creating it when create is set.
func (s *MemoryFeedStore) feed(username string, create bool) *userFeed {
	s.mu.RLock()
	f := s.feeds[username]
	s.mu.RUnlock()
	if f != nil || !create {
		return f
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f = s.feeds[username]; f == nil {
		f = &userFeed{}
		s.feeds[username] = f
	}
	return f
}

// Append implements FeedStore
func (s *MemoryFeedStore) Append(username string, draft Draft) (Notification, error) {
	now := s.nowFn()
	n := Notification{
		ID:        newID(now),
		Username:  username,
		Title:     draft.Title,
		Message:   draft.Message,
		Category:  draft.Category,
		EventID:   draft.EventID,
		CreatedAt: now,
	}

	f := s.feed(username, true)
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append([]Notification{n}, f.entries...)
	if len(f.entries) > s.maxSize {
		f.entries = f.entries[:s.maxSize]
	}
	return n, nil
}

// List implements FeedStore
func (s *MemoryFeedStore) List(username string, unreadOnly bool) []Notification {
	f := s.feed(username, false)
	if f == nil {
		return []Notification{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, 0, len(f.entries))
	for _, n := range f.entries {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out
}

// MarkRead implements FeedStore
func (s *MemoryFeedStore) MarkRead(username, notificationID string) bool {
	f := s.feed(username, false)
	if f == nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		if f.entries[i].ID == notificationID {
			f.entries[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead implements FeedStore
func (s *MemoryFeedStore) MarkAllRead(username string) int {
	f := s.feed(username, false)
	if f == nil {
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	changed := 0
	for i := range f.entries {
		if !f.entries[i].Read {
			f.entries[i].Read = true
			changed++
		}
	}
	return changed
}

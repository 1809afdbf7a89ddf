package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category classifies a notification in a user's feed
type Category string

const (
	CategoryReminder Category = "reminder"
	CategoryInfo     Category = "info"
	CategoryWarning  Category = "warning"
)

// Notification is a single entry in a user's feed. Once created, only the
// Read flag may change.
type Notification struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Read      bool      `json:"read"`
	EventID   string    `json:"event_id,omitempty"` // originating learning event, if any
	CreatedAt time.Time `json:"created_at"`
}

// Draft holds the caller-supplied fields of a notification; the store assigns
// identity, read state, and creation time.
type Draft struct {
	Title    string
	Message  string
	Category Category
	EventID  string
}

// newID generates a feed-unique id: creation nanos for rough ordering plus a
// random suffix for uniqueness within the same instant.
func newID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])
}

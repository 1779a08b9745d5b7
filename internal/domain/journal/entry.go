// internal/domain/journal/entry.go
package journal

import "time"

// EventType names what happened to a reminder.
type EventType string

const (
	EventCreated        EventType = "CREATED"
	EventPushedBack     EventType = "PUSHED_BACK"
	EventDelivered      EventType = "DELIVERED"
	EventDeliveryFailed EventType = "DELIVERY_FAILED"
	EventSnoozed        EventType = "SNOOZED"
	EventRemoved        EventType = "REMOVED"
)

// Entry is one line of reminder history. The journal is an audit trail; pending reminders
// are never rebuilt from it.
type Entry struct {
	ID           string // uuid
	Type         EventType
	GuildID      string
	ChannelID    string
	TargetUserID string
	MessageID    string
	SendAfter    time.Time
	Sticky       bool
	Detail       string
	CreatedAt    time.Time
}

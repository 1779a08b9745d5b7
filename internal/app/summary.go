// internal/app/summary.go
package app

import (
	"time"

	"reply_reminder_bot/internal/domain/reminder"
)

// Summary is a point-in-time count of the store, used by the status endpoints and the
// periodic log line.
type Summary struct {
	Total     int        `json:"total"`
	Pending   int        `json:"pending"`
	Delivered int        `json:"delivered"`
	Sticky    int        `json:"sticky"`
	NextDue   *time.Time `json:"next_due,omitempty"`
}

func Summarize(reminders []*reminder.Reminder) Summary {
	s := Summary{Total: len(reminders)}
	for _, r := range reminders {
		if r.StickySelfReminder {
			s.Sticky++
		}
		if r.Sent {
			s.Delivered++
			continue
		}
		s.Pending++
		if s.NextDue == nil || r.SendAfter.Before(*s.NextDue) {
			next := r.SendAfter
			s.NextDue = &next
		}
	}
	return s
}

// internal/domain/reminder/repository.go
package reminder

import (
	"context"
	"fmt"
	"time"
)

var ErrNotFound = fmt.Errorf("reminder not found")

// Decide receives a copy of the entry currently stored under a key (nil when there is none)
// and returns the candidate to merge into it.
type Decide func(existing *Reminder) *Reminder

// Repository is the only way to reach pending reminders. Every method that reads and then
// writes an entry does so atomically.
type Repository interface {
	// Upsert inserts candidate, or merges it into the existing entry for its key:
	// SendAfter is replaced, StickySelfReminder is OR-ed, and MessageID/Timestamp move
	// forward only when candidate is newer. Returns a copy of the stored entry.
	Upsert(ctx context.Context, candidate *Reminder) (stored *Reminder, created bool, err error)
	// UpsertFunc is Upsert with the candidate chosen under the same lock that merges it.
	UpsertFunc(ctx context.Context, key Key, decide Decide) (stored *Reminder, created bool, err error)
	GetByKey(ctx context.Context, key Key) (*Reminder, error)
	// GetDue returns unsent entries with SendAfter <= now and marks them sent.
	GetDue(ctx context.Context, now time.Time) ([]*Reminder, error)
	// Snooze re-arms an existing entry. ErrNotFound if there is nothing to snooze.
	Snooze(ctx context.Context, key Key, sendAfter time.Time) (*Reminder, error)
	Remove(ctx context.Context, key Key) (existed bool, err error)
	// RemoveIfMessage removes the entry only while it still points at messageID.
	RemoveIfMessage(ctx context.Context, key Key, messageID string) (removed bool, err error)
	GetAll(ctx context.Context) ([]*Reminder, error)
}

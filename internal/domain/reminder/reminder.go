// internal/domain/reminder/reminder.go
package reminder

import (
	"fmt"
	"time"
)

// Key identifies one conversation's reminder slot.
type Key struct {
	GuildID      string
	ChannelID    string
	TargetUserID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%s.%s", k.GuildID, k.ChannelID, k.TargetUserID)
}

// Reminder is a pending (or delivered but not yet acknowledged) nudge for the target user.
type Reminder struct {
	GuildID      string
	ChannelID    string
	TargetUserID string
	MessageID    string    // Message that triggered (or last pushed back) the reminder
	Timestamp    time.Time // When MessageID was authored
	SendAfter    time.Time // Never before Timestamp
	Sent         bool

	// StickySelfReminder is set once the target user posts in the scope. From then on every
	// push back uses the self reminder delay, whoever posts next. Only removal clears it.
	StickySelfReminder bool

	// SendDM asks the deliverer for a direct message instead of a ping in the channel.
	SendDM bool
}

func (r *Reminder) Key() Key {
	return Key{GuildID: r.GuildID, ChannelID: r.ChannelID, TargetUserID: r.TargetUserID}
}

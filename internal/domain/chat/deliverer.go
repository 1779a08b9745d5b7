// internal/domain/chat/deliverer.go
package chat

import (
	"context"
	"fmt"

	"reply_reminder_bot/internal/domain/reminder"
)

// ErrMessageNotFound is returned by DeleteMessage when the message is already gone.
var ErrMessageNotFound = fmt.Errorf("message not found")

// ErrChannelNotFound is returned by SendReminder when the reminder's guild or channel
// can no longer be resolved.
var ErrChannelNotFound = fmt.Errorf("channel not found")

// Deliverer defines the outbound side of a chat platform.
// This keeps the reminder engine independent from any specific bot library.
type Deliverer interface {
	// SendReminder pings (or DMs) the target user, replying to the reminder's message and
	// attaching snooze and remove buttons addressed by the target user id.
	SendReminder(ctx context.Context, r *reminder.Reminder) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

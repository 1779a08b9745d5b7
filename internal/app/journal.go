// internal/app/journal.go
package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reply_reminder_bot/internal/domain/journal"
	"reply_reminder_bot/internal/domain/reminder"
)

// journalRecorder writes reminder history. A nil repository turns it into a no-op, and
// a failed write is logged and otherwise ignored: the journal never blocks a reminder.
type journalRecorder struct {
	repo   journal.Repository
	logger *logrus.Entry
	now    func() time.Time
}

func (j journalRecorder) record(ctx context.Context, eventType journal.EventType, r *reminder.Reminder, detail string) {
	if j.repo == nil || r == nil {
		return
	}

	entry := &journal.Entry{
		ID:           uuid.NewString(),
		Type:         eventType,
		GuildID:      r.GuildID,
		ChannelID:    r.ChannelID,
		TargetUserID: r.TargetUserID,
		MessageID:    r.MessageID,
		SendAfter:    r.SendAfter,
		Sticky:       r.StickySelfReminder,
		Detail:       detail,
		CreatedAt:    j.now().UTC(),
	}
	if err := j.repo.Record(ctx, entry); err != nil {
		j.logger.WithFields(logrus.Fields{
			"event": eventType,
			"key":   r.Key().String(),
		}).WithError(err).Warn("Failed to write journal entry")
	}
}

// internal/app/dispatcher.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reply_reminder_bot/internal/domain/chat"
	"reply_reminder_bot/internal/domain/journal"
	"reply_reminder_bot/internal/domain/reminder"
)

// Dispatcher delivers reminders whose time has come. One Tick is one scan of the store.
type Dispatcher struct {
	repo      reminder.Repository
	deliverer chat.Deliverer
	journal   journalRecorder
	logger    *logrus.Entry
	now       func() time.Time
}

func NewDispatcher(repo reminder.Repository, deliverer chat.Deliverer, journalRepo journal.Repository, logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		deliverer: deliverer,
		journal:   journalRecorder{repo: journalRepo, logger: logger, now: time.Now},
		logger:    logger,
		now:       time.Now,
	}
}

// Tick marks every due reminder sent and delivers it. A failed delivery is logged and not
// retried; the reminder stays sent until snoozed or removed.
func (d *Dispatcher) Tick(ctx context.Context) (delivered int, err error) {
	due, err := d.repo.GetDue(ctx, d.now())
	if err != nil {
		return 0, fmt.Errorf("failed to collect due reminders: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	log := d.logger.WithFields(logrus.Fields{
		"tick_id": uuid.NewString(),
		"due":     len(due),
	})
	log.Debug("Dispatching due reminders")

	for _, r := range due {
		if err := ctx.Err(); err != nil {
			log.WithField("delivered", delivered).Info("Dispatch interrupted")
			return delivered, err
		}

		rlog := log.WithField("key", r.Key().String())
		if err := d.deliverer.SendReminder(ctx, r); err != nil {
			if errors.Is(err, chat.ErrChannelNotFound) {
				rlog.WithError(err).Error("Failed to find channel for reminder")
			} else {
				rlog.WithError(err).Error("Failed to deliver reminder")
			}
			d.journal.record(ctx, journal.EventDeliveryFailed, r, err.Error())
			continue
		}

		delivered++
		rlog.WithField("message_id", r.MessageID).Info("Reminder delivered")
		d.journal.record(ctx, journal.EventDelivered, r, "")
	}
	return delivered, nil
}

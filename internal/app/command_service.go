// internal/app/command_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"reply_reminder_bot/internal/domain/chat"
	"reply_reminder_bot/internal/domain/journal"
	"reply_reminder_bot/internal/domain/reminder"
)

// ErrNotAuthorized is returned when someone other than the reminded user presses a button.
var ErrNotAuthorized = fmt.Errorf("only the reminded user can use this button")

// CommandResult says what a button press did, so the gateway can answer the user.
type CommandResult struct {
	Action chat.Action
	Key    reminder.Key
	Found  bool      // An entry existed for the key
	Until  time.Time // New send time after a snooze
}

type CommandService struct {
	repo      reminder.Repository
	deliverer chat.Deliverer
	journal   journalRecorder
	snooze    time.Duration
	logger    *logrus.Entry
	now       func() time.Time
}

func NewCommandService(
	repo reminder.Repository,
	deliverer chat.Deliverer,
	journalRepo journal.Repository,
	snoozeDelay time.Duration,
	logger *logrus.Entry,
) *CommandService {
	return &CommandService{
		repo:      repo,
		deliverer: deliverer,
		journal:   journalRecorder{repo: journalRepo, logger: logger, now: time.Now},
		snooze:    snoozeDelay,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleInteraction applies a snooze or remove button press.
// Returns chat.ErrInvalidAction for unknown tokens and ErrNotAuthorized for presses by anyone
// but the reminded user; in both cases nothing is changed.
func (s *CommandService) HandleInteraction(ctx context.Context, ev chat.ComponentInteraction) (*CommandResult, error) {
	token, err := chat.ParseActionToken(ev.CustomID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"action":  token.Action,
		"user_id": ev.UserID,
	})
	if ev.UserID != token.TargetUserID {
		log.Info("Ignoring button press from someone other than the reminded user")
		return nil, ErrNotAuthorized
	}

	key := reminder.Key{GuildID: ev.GuildID, ChannelID: ev.ChannelID, TargetUserID: token.TargetUserID}
	if token.GuildID != "" {
		key.GuildID, key.ChannelID = token.GuildID, token.ChannelID
	}
	log = log.WithField("key", key.String())
	result := &CommandResult{Action: token.Action, Key: key}

	switch token.Action {
	case chat.ActionSnooze:
		until := s.now().Add(s.snooze)
		rem, err := s.repo.Snooze(ctx, key, until)
		switch {
		case errors.Is(err, reminder.ErrNotFound):
			log.Warn("Failed to find reminder to snooze")
		case err != nil:
			return nil, fmt.Errorf("failed to snooze reminder %s: %w", key, err)
		default:
			result.Found = true
			result.Until = until
			log.WithField("send_after", until.Format(time.RFC3339)).Info("Reminder snoozed")
			s.journal.record(ctx, journal.EventSnoozed, rem, "")
		}

	case chat.ActionRemove:
		existing, _ := s.repo.GetByKey(ctx, key)
		existed, err := s.repo.Remove(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to remove reminder %s: %w", key, err)
		}
		result.Found = existed
		log.WithField("existed", existed).Info("Reminder removed by button")
		if existed && existing != nil {
			s.journal.record(ctx, journal.EventRemoved, existing, "removed by button")
		}
	}

	s.deleteInteractiveMessage(ctx, ev.ChannelID, ev.MessageID, log)
	return result, nil
}

func (s *CommandService) deleteInteractiveMessage(ctx context.Context, channelID, messageID string, log *logrus.Entry) {
	if messageID == "" {
		return
	}
	err := s.deliverer.DeleteMessage(ctx, channelID, messageID)
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrMessageNotFound):
		log.WithField("message_id", messageID).Info("Reminder message was already deleted")
	default:
		log.WithError(err).WithField("message_id", messageID).Warn("Failed to delete reminder message")
	}
}

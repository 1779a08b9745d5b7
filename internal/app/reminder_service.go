// internal/app/reminder_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"reply_reminder_bot/internal/domain/chat"
	"reply_reminder_bot/internal/domain/journal"
	"reply_reminder_bot/internal/domain/proxy"
	"reply_reminder_bot/internal/domain/reminder"
)

// Policy is the part of the configuration the delay policy needs.
type Policy struct {
	GuildID            string
	ChannelIDs         []string
	TargetUserID       string
	RelayApplicationID string
	SelfReminderDelay  time.Duration
	OtherReminderDelay time.Duration
	SendDM             bool
}

func (p Policy) inScope(guildID, channelID string) bool {
	if guildID != p.GuildID {
		return false
	}
	for _, id := range p.ChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

func (p Policy) key(guildID, channelID string) reminder.Key {
	return reminder.Key{GuildID: guildID, ChannelID: channelID, TargetUserID: p.TargetUserID}
}

// ReminderService turns channel messages into pending reminders and retires them when
// the message they point at disappears.
type ReminderService struct {
	repo     reminder.Repository
	resolver proxy.Resolver // nil when the platform has no relay
	journal  journalRecorder
	policy   Policy
	selfID   atomic.Value
	logger   *logrus.Entry
}

func NewReminderService(
	repo reminder.Repository,
	resolver proxy.Resolver,
	journalRepo journal.Repository,
	policy Policy,
	logger *logrus.Entry,
) *ReminderService {
	s := &ReminderService{
		repo:     repo,
		resolver: resolver,
		journal:  journalRecorder{repo: journalRepo, logger: logger, now: time.Now},
		policy:   policy,
		logger:   logger,
	}
	s.selfID.Store("")
	return s
}

// SetSelfUserID records the bot's own account once the gateway knows it.
func (s *ReminderService) SetSelfUserID(id string) {
	s.selfID.Store(id)
}

func (s *ReminderService) SelfUserID() string {
	return s.selfID.Load().(string)
}

// HandleMessageCreated schedules or pushes back the reminder for the message's channel.
// Only a failing store is reported; everything else is logged and dropped.
func (s *ReminderService) HandleMessageCreated(ctx context.Context, ev chat.MessageCreated) error {
	if !s.policy.inScope(ev.GuildID, ev.ChannelID) {
		return nil
	}
	if self := s.SelfUserID(); self != "" && ev.AuthorID == self {
		return nil
	}

	log := s.logger.WithFields(logrus.Fields{
		"channel_id": ev.ChannelID,
		"message_id": ev.MessageID,
	})

	authorID := s.trueAuthor(ctx, ev, log)
	isTarget := authorID == s.policy.TargetUserID

	var previous *reminder.Reminder
	stored, created, err := s.repo.UpsertFunc(ctx, s.policy.key(ev.GuildID, ev.ChannelID), func(existing *reminder.Reminder) *reminder.Reminder {
		previous = existing
		delay, sticky := s.policy.OtherReminderDelay, false
		if isTarget || (existing != nil && existing.StickySelfReminder) {
			delay, sticky = s.policy.SelfReminderDelay, true
		}
		return &reminder.Reminder{
			GuildID:            ev.GuildID,
			ChannelID:          ev.ChannelID,
			TargetUserID:       s.policy.TargetUserID,
			MessageID:          ev.MessageID,
			Timestamp:          ev.Timestamp,
			SendAfter:          ev.Timestamp.Add(delay),
			StickySelfReminder: sticky,
			SendDM:             s.policy.SendDM,
		}
	})
	if err != nil {
		log.WithError(err).Error("Failed to store reminder")
		return fmt.Errorf("failed to store reminder for %s: %w", s.policy.key(ev.GuildID, ev.ChannelID), err)
	}

	log = log.WithFields(logrus.Fields{
		"author_id":  authorID,
		"send_after": stored.SendAfter.Format(time.RFC3339),
		"sticky":     stored.StickySelfReminder,
	})
	if created {
		log.Info("Reminder scheduled")
		s.journal.record(ctx, journal.EventCreated, stored, "")
		return nil
	}

	log.Debug("Reminder pushed back")
	detail := ""
	if previous != nil && !previous.StickySelfReminder && stored.StickySelfReminder {
		detail = "target user spoke; sticky from now on"
	}
	s.journal.record(ctx, journal.EventPushedBack, stored, detail)
	return nil
}

// trueAuthor resolves relayed messages back to their sender. Any failure falls back to the
// author the platform reported.
func (s *ReminderService) trueAuthor(ctx context.Context, ev chat.MessageCreated, log *logrus.Entry) string {
	if s.resolver == nil || ev.RelayApplicationID == "" || ev.RelayApplicationID != s.policy.RelayApplicationID {
		return ev.AuthorID
	}

	msg, err := s.resolver.Resolve(ctx, ev.MessageID)
	switch {
	case err == nil:
		log.WithField("sender_id", msg.SenderID).Debug("Resolved relayed message")
		return msg.SenderID
	case errors.Is(err, proxy.ErrNotProxied):
		log.Debug("Relay does not know this message, keeping reported author")
	default:
		log.WithError(err).Warn("Failed to resolve relayed message, keeping reported author")
	}
	return ev.AuthorID
}

// HandleMessageDeleted drops the channel's reminder when the message it points at is deleted
// by its author. Deletions done by the relay while reposting keep the reminder.
func (s *ReminderService) HandleMessageDeleted(ctx context.Context, ev chat.MessageDeleted) error {
	if !s.policy.inScope(ev.GuildID, ev.ChannelID) {
		return nil
	}

	key := s.policy.key(ev.GuildID, ev.ChannelID)
	log := s.logger.WithFields(logrus.Fields{
		"channel_id": ev.ChannelID,
		"message_id": ev.MessageID,
	})

	existing, err := s.repo.GetByKey(ctx, key)
	if errors.Is(err, reminder.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up reminder for %s: %w", key, err)
	}
	if existing.MessageID != ev.MessageID {
		return nil
	}

	if s.resolver != nil {
		msg, err := s.resolver.Resolve(ctx, ev.MessageID)
		switch {
		case err == nil && msg.OriginalID == ev.MessageID:
			log.Info("Message was reposted by the relay, keeping reminder")
			return nil
		case err == nil, errors.Is(err, proxy.ErrNotProxied):
		default:
			log.WithError(err).Warn("Failed to check relay for deleted message, keeping reminder")
			return nil
		}
	}

	removed, err := s.repo.RemoveIfMessage(ctx, key, ev.MessageID)
	if err != nil {
		return fmt.Errorf("failed to remove reminder for %s: %w", key, err)
	}
	if removed {
		log.Info("Reminder removed, its message was deleted")
		s.journal.record(ctx, journal.EventRemoved, existing, "message deleted")
	}
	return nil
}

// Pending lists every stored reminder, sent or not.
func (s *ReminderService) Pending(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.repo.GetAll(ctx)
}

// internal/infra/telegram/handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"

	"reply_reminder_bot/internal/app"
	"reply_reminder_bot/internal/domain/chat"
	"reply_reminder_bot/internal/domain/reminder"
)

type MessageHandler interface {
	HandleMessageCreated(ctx context.Context, ev chat.MessageCreated) error
}

type InteractionHandler interface {
	HandleInteraction(ctx context.Context, ev chat.ComponentInteraction) (*app.CommandResult, error)
}

type ReminderLister interface {
	Pending(ctx context.Context) ([]*reminder.Reminder, error)
}

// Handlers turns Telegram updates into reminder events. The Bot API does not report
// deleted messages, so Telegram reminders only end by button or snooze.
type Handlers struct {
	ctx          context.Context
	messages     MessageHandler
	interactions InteractionHandler
	reminders    ReminderLister
	logger       *logrus.Entry
}

func NewHandlers(ctx context.Context, messages MessageHandler, interactions InteractionHandler, reminders ReminderLister, logger *logrus.Entry) *Handlers {
	return &Handlers{
		ctx:          ctx,
		messages:     messages,
		interactions: interactions,
		reminders:    reminders,
		logger:       logger,
	}
}

func (h *Handlers) Register(b *telebot.Bot) {
	b.Use(middleware.Recover())

	b.Handle("/start", h.onStart)
	b.Handle("/help", h.onHelp)
	b.Handle("/reminders", h.onReminders)

	b.Handle(telebot.OnText, h.onMessage)
	b.Handle(telebot.OnMedia, h.onMessage)

	b.Handle(&telebot.Btn{Unique: string(chat.ActionSnooze)}, h.onAction)
	b.Handle(&telebot.Btn{Unique: string(chat.ActionRemove)}, h.onAction)
}

func isGroup(c *telebot.Chat) bool {
	return c != nil && (c.Type == telebot.ChatGroup || c.Type == telebot.ChatSuperGroup)
}

// topicID is the forum topic a message belongs to, 0 outside forum topics.
// Replies in ordinary supergroups also carry a thread id, which is not a topic.
func topicID(msg *telebot.Message) int {
	if !msg.TopicMessage {
		return 0
	}
	return msg.ThreadID
}

func (h *Handlers) onMessage(c telebot.Context) error {
	msg := c.Message()
	if msg == nil || msg.Sender == nil || !isGroup(msg.Chat) {
		return nil
	}

	ev := chat.MessageCreated{
		GuildID:   strconv.FormatInt(msg.Chat.ID, 10),
		ChannelID: strconv.Itoa(topicID(msg)),
		AuthorID:  strconv.FormatInt(msg.Sender.ID, 10),
		MessageID: strconv.Itoa(msg.ID),
		Timestamp: msg.Time(),
	}
	if err := h.messages.HandleMessageCreated(h.ctx, ev); err != nil {
		h.logger.WithError(err).WithField("chat_id", ev.GuildID).Error("Failed to handle message")
	}
	return nil
}

func (h *Handlers) onAction(c telebot.Context) error {
	cb := c.Callback()
	if cb == nil || cb.Sender == nil {
		return nil
	}

	ev := chat.ComponentInteraction{
		UserID:   strconv.FormatInt(cb.Sender.ID, 10),
		CustomID: cb.Unique + "." + cb.Data,
	}
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)
		ev.GuildID, ev.ChannelID = chatID, chatID
		ev.MessageID = strconv.Itoa(cb.Message.ID)
	}

	log := h.logger.WithFields(logrus.Fields{
		"handler":   "callback",
		"sender_id": cb.Sender.ID,
		"data":      ev.CustomID,
	})

	res, err := h.interactions.HandleInteraction(h.ctx, ev)
	switch {
	case errors.Is(err, app.ErrNotAuthorized):
		return c.Respond(&telebot.CallbackResponse{Text: "Only the reminded user can use this button.", ShowAlert: true})
	case errors.Is(err, chat.ErrInvalidAction):
		log.WithError(err).Warn("Unknown callback")
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	case err != nil:
		log.WithError(err).Error("Failed to handle button press")
		return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
	}
	return c.Respond(&telebot.CallbackResponse{Text: resultText(res)})
}

func resultText(res *app.CommandResult) string {
	switch {
	case res.Action == chat.ActionSnooze && res.Found:
		return fmt.Sprintf("Snoozed until %s UTC.", res.Until.UTC().Format("15:04"))
	case res.Action == chat.ActionSnooze:
		return "There is nothing to snooze anymore."
	case res.Found:
		return "Reminder removed."
	default:
		return "Reminder was already removed."
	}
}

func (h *Handlers) onStart(c telebot.Context) error {
	h.logger.WithField("command", "/start").WithField("sender_id", c.Sender().ID).Info("Processing /start command")
	return c.Send("Hi! I remind people to answer conversations they left hanging. Use /help to see how.")
}

func (h *Handlers) onHelp(c telebot.Context) error {
	var helpText strings.Builder
	helpText.WriteString("I watch the configured group topics. When someone writes and nobody answers, ")
	helpText.WriteString("the configured user gets a reminder with two buttons:\n\n")
	helpText.WriteString("💤 Snooze - remind again later\n")
	helpText.WriteString("🗑 Remove - stop reminding about this topic\n\n")
	helpText.WriteString("/reminders - Show pending reminders for this chat.")
	return c.Send(helpText.String())
}

func (h *Handlers) onReminders(c telebot.Context) error {
	all, err := h.reminders.Pending(h.ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reminders for /reminders")
		return c.Send("Could not load reminders, please try again later.")
	}

	chatID := strconv.FormatInt(c.Chat().ID, 10)
	var here []*reminder.Reminder
	for _, r := range all {
		if r.GuildID == chatID {
			here = append(here, r)
		}
	}
	return c.Send(formatReminders(here))
}

func formatReminders(reminders []*reminder.Reminder) string {
	if len(reminders) == 0 {
		return "No reminders in this chat."
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].SendAfter.Before(reminders[j].SendAfter) })

	s := app.Summarize(reminders)
	var b strings.Builder
	fmt.Fprintf(&b, "%d pending, %d delivered\n", s.Pending, s.Delivered)
	for _, r := range reminders {
		state := "due " + r.SendAfter.UTC().Format(time.RFC822)
		if r.Sent {
			state = "delivered"
		}
		sticky := ""
		if r.StickySelfReminder {
			sticky = " (sticky)"
		}
		fmt.Fprintf(&b, "\ntopic %s: %s%s", r.ChannelID, state, sticky)
	}
	return b.String()
}

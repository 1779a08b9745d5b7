// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"

	"gopkg.in/telebot.v3"

	"reply_reminder_bot/internal/domain/chat"
	"reply_reminder_bot/internal/domain/reminder"
)

// API is the part of *telebot.Bot the deliverer needs.
type API interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Delete(msg telebot.Editable) error
}

// TelebotAdapter delivers reminders through the Telegram Bot API. A reminder's guild is the
// group chat id and its channel is the forum topic id ("0" outside forums).
type TelebotAdapter struct {
	bot API
}

func NewTelebotAdapter(b API) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

func (tba *TelebotAdapter) SendReminder(_ context.Context, r *reminder.Reminder) error {
	chatID, err := strconv.ParseInt(r.GuildID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad chat id %q", chat.ErrChannelNotFound, r.GuildID)
	}
	threadID, err := strconv.Atoi(r.ChannelID)
	if err != nil {
		return fmt.Errorf("%w: bad topic id %q", chat.ErrChannelNotFound, r.ChannelID)
	}
	targetID, err := strconv.ParseInt(r.TargetUserID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid target user id %q: %w", r.TargetUserID, err)
	}

	options := &telebot.SendOptions{
		ParseMode:   telebot.ModeHTML,
		ReplyMarkup: reminderMarkup(r),
	}

	var recipient telebot.Recipient = &telebot.Chat{ID: chatID}
	text := fmt.Sprintf("⏰ <b>reminder!</b>\nThis is a reminder for <a href=\"tg://user?id=%d\">%s</a>!",
		targetID, html.EscapeString(r.TargetUserID))
	if r.SendDM {
		recipient = &telebot.User{ID: targetID}
		text += "\nThere is a conversation waiting for your reply."
	} else {
		options.ThreadID = threadID
		if msgID, err := strconv.Atoi(r.MessageID); err == nil {
			options.ReplyTo = &telebot.Message{ID: msgID}
			options.AllowWithoutReply = true
		}
	}

	if _, err := tba.bot.Send(recipient, text, options); err != nil {
		if errors.Is(err, telebot.ErrChatNotFound) {
			return fmt.Errorf("%w: %v", chat.ErrChannelNotFound, err)
		}
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

// DeleteMessage removes a message. channelID is the chat the message lives in.
func (tba *TelebotAdapter) DeleteMessage(_ context.Context, channelID, messageID string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", channelID, err)
	}

	err = tba.bot.Delete(telebot.StoredMessage{MessageID: messageID, ChatID: chatID})
	if errors.Is(err, telebot.ErrNotFoundToDelete) {
		return fmt.Errorf("%w: %v", chat.ErrMessageNotFound, err)
	}
	return err
}

// reminderMarkup builds the Snooze/Remove keyboard. Buttons always carry the full scope
// since a Telegram callback only knows the chat, not the topic.
func reminderMarkup(r *reminder.Reminder) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	snooze := chat.NewActionToken(chat.ActionSnooze, r).WithScope(r.GuildID, r.ChannelID)
	remove := chat.NewActionToken(chat.ActionRemove, r).WithScope(r.GuildID, r.ChannelID)
	markup.Inline(markup.Row(
		markup.Data("💤 Snooze", string(snooze.Action), snooze.Payload()),
		markup.Data("🗑 Remove", string(remove.Action), remove.Payload()),
	))
	return markup
}

package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"reply_reminder_bot/internal/domain/chat"
	"reply_reminder_bot/internal/domain/reminder"
)

const reminderColor = 0xF1C40F // gold

// API is the REST surface of *discordgo.Session used for delivery.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

type Deliverer struct {
	api API
}

func NewDeliverer(api API) *Deliverer {
	return &Deliverer{api: api}
}

// SendReminder replies to the reminder's message with a ping, or opens a DM when the
// reminder asks for one.
func (d *Deliverer) SendReminder(ctx context.Context, r *reminder.Reminder) error {
	channelID := r.ChannelID
	if r.SendDM {
		dm, err := d.api.UserChannelCreate(r.TargetUserID, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to open DM with %s: %w", r.TargetUserID, err)
		}
		channelID = dm.ID
	}

	if _, err := d.api.ChannelMessageSendComplex(channelID, reminderMessage(r), discordgo.WithContext(ctx)); err != nil {
		if isUnknown(err, discordgo.ErrCodeUnknownChannel) {
			return fmt.Errorf("%w: %v", chat.ErrChannelNotFound, err)
		}
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

func (d *Deliverer) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := d.api.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if isUnknown(err, discordgo.ErrCodeUnknownMessage) {
		return fmt.Errorf("%w: %v", chat.ErrMessageNotFound, err)
	}
	return err
}

func reminderMessage(r *reminder.Reminder) *discordgo.MessageSend {
	mention := "<@" + r.TargetUserID + ">"
	msg := &discordgo.MessageSend{
		Content: mention,
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "reminder!",
			Description: fmt.Sprintf("This is a reminder for %s!", mention),
			Color:       reminderColor,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "💤 Snooze",
					Style:    discordgo.PrimaryButton,
					CustomID: chat.NewActionToken(chat.ActionSnooze, r).String(),
				},
				discordgo.Button{
					Label:    "Remove",
					Style:    discordgo.DangerButton,
					CustomID: chat.NewActionToken(chat.ActionRemove, r).String(),
				},
			}},
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{r.TargetUserID}},
	}
	if !r.SendDM {
		failIfMissing := false
		msg.Reference = &discordgo.MessageReference{
			MessageID:       r.MessageID,
			ChannelID:       r.ChannelID,
			GuildID:         r.GuildID,
			FailIfNotExists: &failIfMissing,
		}
	} else {
		msg.Embeds[0].Description += fmt.Sprintf("\nSomeone is waiting in <#%s>.", r.ChannelID)
	}
	return msg
}

// isUnknown reports whether err is a Discord 404 or carries the given "Unknown ..." code.
func isUnknown(err error, code int) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == code {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"reply_reminder_bot/internal/app"
	"reply_reminder_bot/internal/domain/chat"
)

const dismissEmoji = "❌"

type MessageHandler interface {
	HandleMessageCreated(ctx context.Context, ev chat.MessageCreated) error
	HandleMessageDeleted(ctx context.Context, ev chat.MessageDeleted) error
	SetSelfUserID(id string)
	SelfUserID() string
}

type InteractionHandler interface {
	HandleInteraction(ctx context.Context, ev chat.ComponentInteraction) (*app.CommandResult, error)
}

type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Gateway feeds Discord gateway events into the reminder services.
type Gateway struct {
	ctx          context.Context
	session      *discordgo.Session
	api          API
	responder    interactionResponder
	messages     MessageHandler
	interactions InteractionHandler
	relayAppID   string
	logger       *logrus.Entry
}

// NewSession creates a bot session with the intents the gateway relies on.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages
	s.State.MaxMessageCount = 500 // Lets MessageDelete carry the deleted message's author
	return s, nil
}

// NewGateway wires a session to the services. Webhook messages are attributed to
// relayAppID, since discordgo does not expose a message's owning application.
func NewGateway(
	ctx context.Context,
	session *discordgo.Session,
	messages MessageHandler,
	interactions InteractionHandler,
	relayAppID string,
	logger *logrus.Entry,
) *Gateway {
	return &Gateway{
		ctx:          ctx,
		session:      session,
		api:          session,
		responder:    session,
		messages:     messages,
		interactions: interactions,
		relayAppID:   relayAppID,
		logger:       logger,
	}
}

// Open registers the handlers and connects.
func (g *Gateway) Open() error {
	g.session.AddHandler(g.onReady)
	g.session.AddHandler(g.onMessageCreate)
	g.session.AddHandler(g.onMessageDelete)
	g.session.AddHandler(g.onInteractionCreate)
	g.session.AddHandler(g.onReactionAdd)

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

// recovered logs a panic from one event instead of letting it reach discordgo.
func (g *Gateway) recovered(event string) {
	if r := recover(); r != nil {
		g.logger.WithFields(logrus.Fields{"event": event, "panic": r}).Error("Recovered from panic in event handler")
	}
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.messages.SetSelfUserID(r.User.ID)
	g.logger.WithFields(logrus.Fields{
		"user_id": r.User.ID,
		"guilds":  len(r.Guilds),
	}).Info("Connected to Discord")
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	defer g.recovered("MessageCreate")
	ev, ok := messageCreated(m.Message, g.relayAppID)
	if !ok {
		return
	}
	if err := g.messages.HandleMessageCreated(g.ctx, ev); err != nil {
		g.logger.WithError(err).WithField("channel_id", ev.ChannelID).Error("Failed to handle message")
	}
}

func (g *Gateway) onMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	defer g.recovered("MessageDelete")
	ev := chat.MessageDeleted{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
	}
	if m.BeforeDelete != nil && m.BeforeDelete.Author != nil {
		ev.AuthorID = m.BeforeDelete.Author.ID
	}
	if err := g.messages.HandleMessageDeleted(g.ctx, ev); err != nil {
		g.logger.WithError(err).WithField("channel_id", ev.ChannelID).Error("Failed to handle message deletion")
	}
}

func (g *Gateway) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	defer g.recovered("InteractionCreate")
	ev, ok := componentInteraction(i.Interaction)
	if !ok {
		return
	}
	log := g.logger.WithFields(logrus.Fields{
		"user_id":   ev.UserID,
		"custom_id": ev.CustomID,
	})

	res, err := g.interactions.HandleInteraction(g.ctx, ev)
	var text string
	switch {
	case errors.Is(err, app.ErrNotAuthorized):
		text = "Only the reminded user can use this button."
	case errors.Is(err, chat.ErrInvalidAction):
		log.WithError(err).Warn("Unknown button")
		text = "Unknown action."
	case err != nil:
		log.WithError(err).Error("Failed to handle button press")
		text = "Something went wrong, please try again."
	default:
		text = resultText(res)
	}

	err = g.responder.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(g.ctx))
	if err != nil {
		log.WithError(err).Warn("Failed to answer interaction")
	}
}

// onReactionAdd lets anyone dismiss one of the bot's own messages with ❌.
func (g *Gateway) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	defer g.recovered("ReactionAdd")
	if r.Emoji.Name != dismissEmoji {
		return
	}
	self := g.messages.SelfUserID()
	if self == "" || r.UserID == self {
		return
	}

	log := g.logger.WithFields(logrus.Fields{"channel_id": r.ChannelID, "message_id": r.MessageID})
	msg, err := g.api.ChannelMessage(r.ChannelID, r.MessageID, discordgo.WithContext(g.ctx))
	if err != nil {
		log.WithError(err).Debug("Failed to fetch reacted message")
		return
	}
	if msg.Author == nil || msg.Author.ID != self {
		return
	}
	if err := g.api.ChannelMessageDelete(r.ChannelID, r.MessageID, discordgo.WithContext(g.ctx)); err != nil && !isUnknown(err, discordgo.ErrCodeUnknownMessage) {
		log.WithError(err).Warn("Failed to delete dismissed message")
		return
	}
	log.Info("Dismissed bot message on reaction")
}

func messageCreated(m *discordgo.Message, relayAppID string) (chat.MessageCreated, bool) {
	if m == nil || m.Author == nil || m.GuildID == "" {
		return chat.MessageCreated{}, false
	}
	ev := chat.MessageCreated{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		MessageID: m.ID,
		Timestamp: m.Timestamp,
	}
	if m.WebhookID != "" {
		ev.RelayApplicationID = relayAppID
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return ev, true
}

func componentInteraction(i *discordgo.Interaction) (chat.ComponentInteraction, bool) {
	if i == nil || i.Type != discordgo.InteractionMessageComponent {
		return chat.ComponentInteraction{}, false
	}
	ev := chat.ComponentInteraction{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CustomID:  i.MessageComponentData().CustomID,
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		ev.UserID = i.Member.User.ID
	case i.User != nil:
		ev.UserID = i.User.ID
	}
	if i.Message != nil {
		ev.MessageID = i.Message.ID
	}
	return ev, true
}

func resultText(res *app.CommandResult) string {
	switch {
	case res.Action == chat.ActionSnooze && res.Found:
		return fmt.Sprintf("Snoozed until <t:%d:t>.", res.Until.Unix())
	case res.Action == chat.ActionSnooze:
		return "There is nothing to snooze anymore."
	case res.Found:
		return "Reminder removed."
	default:
		return "Reminder was already removed."
	}
}

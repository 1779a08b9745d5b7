// internal/domain/chat/events.go
package chat

import "time"

// MessageCreated is emitted by a gateway for every message it sees.
type MessageCreated struct {
	GuildID            string
	ChannelID          string
	AuthorID           string
	MessageID          string
	Timestamp          time.Time
	RelayApplicationID string // Empty unless the message was posted by an application
}

type MessageDeleted struct {
	GuildID   string
	ChannelID string
	AuthorID  string // Empty when the gateway did not have the message cached
	MessageID string
}

// ComponentInteraction is a button press. CustomID carries "<action>.<targetUserId>".
type ComponentInteraction struct {
	UserID    string
	GuildID   string
	ChannelID string
	MessageID string
	CustomID  string
}

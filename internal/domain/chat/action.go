// internal/domain/chat/action.go
package chat

import (
	"fmt"
	"strconv"
	"strings"

	"reply_reminder_bot/internal/domain/reminder"
)

type Action string

const (
	ActionSnooze Action = "snooze"
	ActionRemove Action = "remove"
)

var ErrInvalidAction = fmt.Errorf("invalid reminder action")

// ActionToken is what a reminder button carries: "<action>.<targetUserId>".
// Buttons sent outside the reminder's channel (DMs) append ".<guildId>.<channelId>"
// so the press can still be matched to its scope.
type ActionToken struct {
	Action       Action
	TargetUserID string
	GuildID      string
	ChannelID    string
}

// NewActionToken builds the token for a reminder's button.
func NewActionToken(action Action, r *reminder.Reminder) ActionToken {
	t := ActionToken{Action: action, TargetUserID: r.TargetUserID}
	if r.SendDM {
		t.GuildID = r.GuildID
		t.ChannelID = r.ChannelID
	}
	return t
}

// WithScope pins the token to a reminder scope, for platforms where the button's own
// location does not identify it.
func (t ActionToken) WithScope(guildID, channelID string) ActionToken {
	t.GuildID, t.ChannelID = guildID, channelID
	return t
}

// Payload is the token without its action prefix.
func (t ActionToken) Payload() string {
	return strings.TrimPrefix(t.String(), string(t.Action)+".")
}

func (t ActionToken) String() string {
	if t.GuildID == "" {
		return string(t.Action) + "." + t.TargetUserID
	}
	return strings.Join([]string{string(t.Action), t.TargetUserID, t.GuildID, t.ChannelID}, ".")
}

func ParseActionToken(customID string) (ActionToken, error) {
	parts := strings.Split(customID, ".")
	if len(parts) != 2 && len(parts) != 4 {
		return ActionToken{}, fmt.Errorf("%w: %q", ErrInvalidAction, customID)
	}

	t := ActionToken{Action: Action(parts[0]), TargetUserID: parts[1]}
	if t.Action != ActionSnooze && t.Action != ActionRemove {
		return ActionToken{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, parts[0])
	}
	if len(parts) == 4 {
		t.GuildID, t.ChannelID = parts[2], parts[3]
	}
	for _, id := range parts[1:] {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return ActionToken{}, fmt.Errorf("%w: %q is not an id", ErrInvalidAction, id)
		}
	}
	return t, nil
}

package chat

import (
	"errors"
	"testing"

	"reply_reminder_bot/internal/domain/reminder"
)

func TestActionTokenRoundTrip(t *testing.T) {
	r := &reminder.Reminder{GuildID: "100", ChannelID: "200", TargetUserID: "42"}

	ping := NewActionToken(ActionSnooze, r)
	if ping.String() != "snooze.42" {
		t.Errorf("ping token = %q, want snooze.42", ping.String())
	}

	r.SendDM = true
	dm := NewActionToken(ActionRemove, r)
	if dm.String() != "remove.42.100.200" {
		t.Errorf("dm token = %q, want remove.42.100.200", dm.String())
	}

	parsed, err := ParseActionToken(dm.String())
	if err != nil {
		t.Fatalf("ParseActionToken: %v", err)
	}
	if parsed != dm {
		t.Errorf("parsed = %+v, want %+v", parsed, dm)
	}
}

func TestParseActionTokenRejectsGarbage(t *testing.T) {
	for _, id := range []string{"", "snooze", "snooze.", "dance.42", "snooze.abc", "remove.42.100", "remove.42.100.x"} {
		if _, err := ParseActionToken(id); !errors.Is(err, ErrInvalidAction) {
			t.Errorf("ParseActionToken(%q) err = %v, want ErrInvalidAction", id, err)
		}
	}
}

func TestActionTokenWithScope(t *testing.T) {
	r := &reminder.Reminder{GuildID: "-1001", ChannelID: "0", TargetUserID: "42"}
	tok := NewActionToken(ActionSnooze, r).WithScope(r.GuildID, r.ChannelID)
	if tok.Payload() != "42.-1001.0" {
		t.Errorf("Payload = %q, want 42.-1001.0", tok.Payload())
	}
	parsed, err := ParseActionToken(string(tok.Action) + "." + tok.Payload())
	if err != nil || parsed != tok {
		t.Errorf("ParseActionToken = %+v, %v; want %+v", parsed, err, tok)
	}
}

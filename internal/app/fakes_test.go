package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"reply_reminder_bot/internal/domain/journal"
	"reply_reminder_bot/internal/domain/proxy"
	"reply_reminder_bot/internal/domain/reminder"
)

const (
	guildID  = "100"
	chanA    = "200"
	chanB    = "201"
	targetID = "42"
	otherID  = "7"
	selfID   = "999"
	relayApp = "466378653216014359"
)

var t0 = time.Unix(1000, 0).UTC()

func testPolicy() Policy {
	return Policy{
		GuildID:            guildID,
		ChannelIDs:         []string{chanA, chanB},
		TargetUserID:       targetID,
		RelayApplicationID: relayApp,
		SelfReminderDelay:  10800 * time.Second,
		OtherReminderDelay: 600 * time.Second,
	}
}

func testLogger() (*logrus.Entry, *logtest.Hook) {
	l, hook := logtest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(l), hook
}

type fakeDeliverer struct {
	mu        sync.Mutex
	sent      []*reminder.Reminder
	deleted   []string
	sendErr   map[string]error // by channel id
	deleteErr error
}

func (f *fakeDeliverer) SendReminder(_ context.Context, r *reminder.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sendErr[r.ChannelID]; err != nil {
		return err
	}
	f.sent = append(f.sent, r)
	return nil
}

func (f *fakeDeliverer) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return f.deleteErr
}

type fakeResolver struct {
	mu       sync.Mutex
	messages map[string]*proxy.Message
	err      error
	calls    int
}

func (f *fakeResolver) Resolve(_ context.Context, messageID string) (*proxy.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, proxy.ErrNotProxied
	}
	return msg, nil
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []*journal.Entry
	err     error
}

func (f *fakeJournal) Record(_ context.Context, e *journal.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeJournal) ListRecent(context.Context, int) ([]*journal.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*journal.Entry(nil), f.entries...), nil
}

func (f *fakeJournal) PruneBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeJournal) types() []journal.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]journal.EventType, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Type)
	}
	return out
}

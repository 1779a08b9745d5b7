package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reply_reminder_bot/internal/domain/reminder"
)

// ReminderRepository keeps pending reminders for the lifetime of the process.
// One mutex serializes every operation, which is enough for a single guild's channels.
type ReminderRepository struct {
	mu        sync.Mutex
	reminders map[reminder.Key]*reminder.Reminder
}

func NewReminderRepository() *ReminderRepository {
	return &ReminderRepository{reminders: make(map[reminder.Key]*reminder.Reminder)}
}

func (r *ReminderRepository) Upsert(ctx context.Context, candidate *reminder.Reminder) (*reminder.Reminder, bool, error) {
	return r.UpsertFunc(ctx, candidate.Key(), func(*reminder.Reminder) *reminder.Reminder { return candidate })
}

func (r *ReminderRepository) UpsertFunc(_ context.Context, key reminder.Key, decide reminder.Decide) (*reminder.Reminder, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reminders[key]
	var current *reminder.Reminder
	if ok {
		current = copyOf(existing)
	}
	candidate := decide(current)
	if candidate.Key() != key {
		return nil, false, fmt.Errorf("candidate key %s does not match %s", candidate.Key(), key)
	}

	if !ok {
		stored := *candidate
		r.reminders[key] = &stored
		return copyOf(&stored), true, nil
	}

	existing.StickySelfReminder = existing.StickySelfReminder || candidate.StickySelfReminder
	if candidate.Timestamp.After(existing.Timestamp) {
		existing.MessageID = candidate.MessageID
		existing.Timestamp = candidate.Timestamp
		existing.SendAfter = candidate.SendAfter
	} else if candidate.SendAfter.After(existing.SendAfter) {
		// An out-of-order older message may only push the deadline back.
		existing.SendAfter = candidate.SendAfter
	}
	return copyOf(existing), false, nil
}

func (r *ReminderRepository) GetByKey(_ context.Context, key reminder.Key) (*reminder.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reminders[key]
	if !ok {
		return nil, reminder.ErrNotFound
	}
	return copyOf(existing), nil
}

func (r *ReminderRepository) GetDue(_ context.Context, now time.Time) ([]*reminder.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]*reminder.Reminder, 0)
	for _, rem := range r.reminders {
		if rem.Sent || now.Before(rem.SendAfter) {
			continue
		}
		rem.Sent = true
		due = append(due, copyOf(rem))
	}
	return due, nil
}

func (r *ReminderRepository) Snooze(_ context.Context, key reminder.Key, sendAfter time.Time) (*reminder.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reminders[key]
	if !ok {
		return nil, reminder.ErrNotFound
	}
	existing.SendAfter = sendAfter
	existing.Sent = false
	return copyOf(existing), nil
}

func (r *ReminderRepository) Remove(_ context.Context, key reminder.Key) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.reminders[key]
	delete(r.reminders, key)
	return ok, nil
}

func (r *ReminderRepository) RemoveIfMessage(_ context.Context, key reminder.Key, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reminders[key]
	if !ok || existing.MessageID != messageID {
		return false, nil
	}
	delete(r.reminders, key)
	return true, nil
}

func (r *ReminderRepository) GetAll(_ context.Context) ([]*reminder.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*reminder.Reminder, 0, len(r.reminders))
	for _, rem := range r.reminders {
		all = append(all, copyOf(rem))
	}
	return all, nil
}

func copyOf(r *reminder.Reminder) *reminder.Reminder {
	c := *r
	return &c
}

package database

import (
	"context"
	"fmt"
	"time"

	"reply_reminder_bot/internal/domain/journal"
)

// JournalRepository stores reminder history in SQL.
type JournalRepository struct {
	db *DB
}

func NewJournalRepository(db *DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Record(ctx context.Context, e *journal.Entry) error {
	query := r.db.rebind(`INSERT INTO reminder_journal
		(id, event_type, guild_id, channel_id, target_user_id, message_id, send_after_ms, sticky, detail, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		e.ID, string(e.Type), e.GuildID, e.ChannelID, e.TargetUserID, e.MessageID,
		e.SendAfter.UnixMilli(), e.Sticky, e.Detail, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("error recording journal entry: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *JournalRepository) ListRecent(ctx context.Context, limit int) ([]*journal.Entry, error) {
	query := r.db.rebind(`SELECT id, event_type, guild_id, channel_id, target_user_id, message_id,
		send_after_ms, sticky, detail, created_at_ms
		FROM reminder_journal ORDER BY created_at_ms DESC, id LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		var (
			e                    journal.Entry
			eventType            string
			sendAfter, createdAt int64
		)
		if err := rows.Scan(&e.ID, &eventType, &e.GuildID, &e.ChannelID, &e.TargetUserID, &e.MessageID,
			&sendAfter, &e.Sticky, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning journal entry: %w", err)
		}
		e.Type = journal.EventType(eventType)
		e.SendAfter = time.UnixMilli(sendAfter).UTC()
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}
	return entries, nil
}

func (r *JournalRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.db.rebind(`DELETE FROM reminder_journal WHERE created_at_ms < ?`)
	res, err := r.db.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("error pruning journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting pruned journal entries: %w", err)
	}
	return n, nil
}

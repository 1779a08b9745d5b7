package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"reply_reminder_bot/internal/app"
	"reply_reminder_bot/internal/domain/journal"
	"reply_reminder_bot/internal/domain/reminder"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

type reminderView struct {
	GuildID      string    `json:"guild_id"`
	ChannelID    string    `json:"channel_id"`
	TargetUserID string    `json:"target_user_id"`
	MessageID    string    `json:"message_id"`
	Timestamp    time.Time `json:"timestamp"`
	SendAfter    time.Time `json:"send_after"`
	Sent         bool      `json:"sent"`
	Sticky       bool      `json:"sticky"`
	SendDM       bool      `json:"send_dm"`
}

func viewOf(r *reminder.Reminder) reminderView {
	return reminderView{
		GuildID:      r.GuildID,
		ChannelID:    r.ChannelID,
		TargetUserID: r.TargetUserID,
		MessageID:    r.MessageID,
		Timestamp:    r.Timestamp.UTC(),
		SendAfter:    r.SendAfter.UTC(),
		Sent:         r.Sent,
		Sticky:       r.StickySelfReminder,
		SendDM:       r.SendDM,
	}
}

type journalView struct {
	ID        string            `json:"id"`
	Type      journal.EventType `json:"type"`
	ChannelID string            `json:"channel_id"`
	MessageID string            `json:"message_id"`
	SendAfter time.Time         `json:"send_after"`
	Sticky    bool              `json:"sticky"`
	Detail    string            `json:"detail,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"journal": s.journal != nil,
	})
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	all, err := s.reminders.Pending(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reminders")
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SendAfter.Before(all[j].SendAfter) })

	views := make([]reminderView, 0, len(all))
	for _, rem := range all {
		views = append(views, viewOf(rem))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":   app.Summarize(all),
		"reminders": views,
	})
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	all, err := s.reminders.Pending(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reminders")
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	for _, rem := range all {
		if rem.ChannelID == channelID {
			writeJSON(w, http.StatusOK, viewOf(rem))
			return
		}
	}
	writeError(w, http.StatusNotFound, "no reminder for channel "+channelID)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal is disabled")
		return
	}

	limit := defaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := s.journal.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list journal")
		writeError(w, http.StatusInternalServerError, "failed to list journal")
		return
	}

	views := make([]journalView, 0, len(entries))
	for _, e := range entries {
		views = append(views, journalView{
			ID:        e.ID,
			Type:      e.Type,
			ChannelID: e.ChannelID,
			MessageID: e.MessageID,
			SendAfter: e.SendAfter.UTC(),
			Sticky:    e.Sticky,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": views})
}

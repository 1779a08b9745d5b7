package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"reply_reminder_bot/internal/app"
	"reply_reminder_bot/internal/domain/reminder"
)

// Dispatcher runs one delivery pass.
type Dispatcher interface {
	Tick(ctx context.Context) (int, error)
}

// Reporter lists the store for the periodic summary line.
type Reporter interface {
	Pending(ctx context.Context) ([]*reminder.Reminder, error)
}

type JournalPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Options struct {
	DispatchInterval     time.Duration
	CronSpecSummary      string // Empty disables the summary job
	CronSpecJournalPrune string
	JournalRetention     time.Duration
}

// ReminderScheduler drives the dispatch loop and the housekeeping jobs on one cron engine.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	dispatcher Dispatcher
	reporter   Reporter
	pruner     JournalPruner // nil when the journal is off
	logger     *logrus.Entry
	opts       Options
	now        func() time.Time
}

func NewReminderScheduler(
	dispatcher Dispatcher,
	reporter Reporter,
	pruner JournalPruner,
	logger *logrus.Entry,
	opts Options,
) *ReminderScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		dispatcher: dispatcher,
		reporter:   reporter,
		pruner:     pruner,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Start registers the jobs and starts the engine. ctx is handed to every job; cancelling it
// interrupts a running dispatch pass.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting reminder scheduler...")

	if s.opts.DispatchInterval < time.Second {
		return fmt.Errorf("dispatch interval must be at least 1s, got %s", s.opts.DispatchInterval)
	}
	s.cronEngine.Schedule(cron.Every(s.opts.DispatchInterval), cron.FuncJob(func() {
		s.dispatch(ctx)
	}))

	if s.opts.CronSpecSummary != "" && s.reporter != nil {
		if _, err := s.cronEngine.AddFunc(s.opts.CronSpecSummary, func() { s.summarize(ctx) }); err != nil {
			return fmt.Errorf("could not add summary cron job: %w", err)
		}
	}

	if s.pruner != nil && s.opts.CronSpecJournalPrune != "" && s.opts.JournalRetention > 0 {
		if _, err := s.cronEngine.AddFunc(s.opts.CronSpecJournalPrune, func() { s.prune(ctx) }); err != nil {
			return fmt.Errorf("could not add journal prune cron job: %w", err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("interval", s.opts.DispatchInterval.String()).Info("Reminder scheduler started with jobs.")
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for running jobs.
func (s *ReminderScheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.logger.Info("Cancellation received, stopping dispatch loop")
	s.Stop()
	return nil
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}

func (s *ReminderScheduler) dispatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, err := s.dispatcher.Tick(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.logger.Info("Dispatch pass interrupted by shutdown")
	default:
		s.logger.WithError(err).Error("Dispatch pass failed")
	}
}

func (s *ReminderScheduler) summarize(ctx context.Context) {
	all, err := s.reporter.Pending(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reminders for summary")
		return
	}
	summary := app.Summarize(all)
	fields := logrus.Fields{
		"total":     summary.Total,
		"pending":   summary.Pending,
		"delivered": summary.Delivered,
		"sticky":    summary.Sticky,
	}
	if summary.NextDue != nil {
		fields["next_due"] = summary.NextDue.Format(time.RFC3339)
	}
	s.logger.WithFields(fields).Info("Reminder summary")
}

func (s *ReminderScheduler) prune(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.opts.JournalRetention)
	n, err := s.pruner.PruneBefore(jobCtx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to prune reminder journal")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"removed": n,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("Pruned reminder journal")
}

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"reply_reminder_bot/internal/domain/reminder"
)

type countingDispatcher struct {
	calls     atomic.Int32
	panicOnce atomic.Bool
}

func (d *countingDispatcher) Tick(context.Context) (int, error) {
	n := d.calls.Add(1)
	if n == 1 && d.panicOnce.Load() {
		panic("boom")
	}
	return 0, nil
}

type staticReporter []*reminder.Reminder

func (r staticReporter) Pending(context.Context) ([]*reminder.Reminder, error) { return r, nil }

type recordingPruner struct{ cutoff time.Time }

func (p *recordingPruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return 3, nil
}

func testEntry() (*logrus.Entry, *logtest.Hook) {
	l, hook := logtest.NewNullLogger()
	return logrus.NewEntry(l), hook
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	d := &countingDispatcher{}
	logger, _ := testEntry()
	s := NewReminderScheduler(d, nil, nil, logger, Options{DispatchInterval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, 3*time.Second, func() bool { return d.calls.Load() >= 1 })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return within one tick of cancellation")
	}

	after := d.calls.Load()
	time.Sleep(1200 * time.Millisecond)
	if d.calls.Load() != after {
		t.Errorf("dispatcher ticked after Run returned")
	}
}

func TestPanickingTickDoesNotStopLoop(t *testing.T) {
	d := &countingDispatcher{}
	d.panicOnce.Store(true)
	logger, _ := testEntry()
	s := NewReminderScheduler(d, nil, nil, logger, Options{DispatchInterval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	waitFor(t, 4*time.Second, func() bool { return d.calls.Load() >= 2 })
}

func TestStartRejectsBadSpecs(t *testing.T) {
	logger, _ := testEntry()

	s := NewReminderScheduler(&countingDispatcher{}, staticReporter{}, nil, logger,
		Options{DispatchInterval: time.Second, CronSpecSummary: "not a spec"})
	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Error("Start accepted an invalid summary cron expression")
	}

	s = NewReminderScheduler(&countingDispatcher{}, nil, nil, logger, Options{DispatchInterval: 10 * time.Millisecond})
	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Error("Start accepted a sub-second interval")
	}
}

func TestSummaryLogsCounts(t *testing.T) {
	logger, hook := testEntry()
	reporter := staticReporter{
		{SendAfter: time.Unix(2000, 0)},
		{SendAfter: time.Unix(10, 0), Sent: true, StickySelfReminder: true},
	}
	s := NewReminderScheduler(&countingDispatcher{}, reporter, nil, logger, Options{DispatchInterval: time.Second})

	s.summarize(context.Background())

	last := hook.LastEntry()
	if last == nil || last.Message != "Reminder summary" {
		t.Fatalf("last log = %+v, want the summary line", last)
	}
	if last.Data["pending"] != 1 || last.Data["delivered"] != 1 || last.Data["sticky"] != 1 {
		t.Errorf("summary fields = %v", last.Data)
	}
}

func TestPruneUsesRetention(t *testing.T) {
	logger, _ := testEntry()
	pruner := &recordingPruner{}
	s := NewReminderScheduler(&countingDispatcher{}, nil, pruner, logger,
		Options{DispatchInterval: time.Second, JournalRetention: 24 * time.Hour, CronSpecJournalPrune: "30 3 * * *"})
	now := time.Date(2024, 5, 10, 3, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.prune(context.Background())

	if want := now.Add(-24 * time.Hour); !pruner.cutoff.Equal(want) {
		t.Errorf("cutoff = %s, want %s", pruner.cutoff, want)
	}
}

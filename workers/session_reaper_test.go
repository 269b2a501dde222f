package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"run-leaderboard-service/logger"
)

type fakeExpirer struct {
	cutoffs []time.Time
	n       int
	err     error
}

func (f *fakeExpirer) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func TestReapUsesTTLCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeExpirer{n: 3}
	r := NewSessionReaper(fake, 24*time.Hour, time.Minute, logger.Discard())
	r.now = func() time.Time { return now }

	if got := r.Reap(context.Background()); got != 3 {
		t.Errorf("Reap() = %d, want 3", got)
	}
	if len(fake.cutoffs) != 1 {
		t.Fatalf("DeleteExpired called %d times, want 1", len(fake.cutoffs))
	}
	if want := now.Add(-24 * time.Hour); !fake.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", fake.cutoffs[0], want)
	}
}

func TestReapReportsPartialProgressOnError(t *testing.T) {
	fake := &fakeExpirer{n: 1, err: errors.New("db gone")}
	r := NewSessionReaper(fake, time.Hour, time.Minute, logger.Discard())

	if got := r.Reap(context.Background()); got != 1 {
		t.Errorf("Reap() = %d, want 1", got)
	}
}

func TestStartDisabledWithZeroTTL(t *testing.T) {
	fake := &fakeExpirer{}
	r := NewSessionReaper(fake, 0, time.Minute, logger.Discard())

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if r.sched != nil {
		t.Error("scheduler created with reaping disabled")
	}
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestStartSchedulesSweeps(t *testing.T) {
	fake := &fakeExpirer{}
	r := NewSessionReaper(fake, time.Hour, time.Hour, logger.Discard())

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if r.sched == nil || len(r.sched.Jobs()) != 1 {
		t.Fatal("reaper job not scheduled")
	}
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

package workers

import (
	"context"
	"time"

	"run-leaderboard-service/logger"

	"github.com/go-co-op/gocron/v2"
)

// SessionExpirer deletes run sessions created before cutoff.
type SessionExpirer interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// SessionReaper periodically removes run sessions older than the TTL.
type SessionReaper struct {
	sessions SessionExpirer
	ttl      time.Duration
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	sched gocron.Scheduler
}

func NewSessionReaper(sessions SessionExpirer, ttl, interval time.Duration, log *logger.Logger) *SessionReaper {
	return &SessionReaper{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		log:      log.With("component", "session_reaper"),
		now:      time.Now,
	}
}

// Start schedules the reaper. A zero TTL leaves sessions alone.
func (r *SessionReaper) Start() error {
	if r.ttl <= 0 {
		r.log.Info("session reaping disabled")
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			defer cancel()
			r.Reap(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}

	sched.Start()
	r.sched = sched
	r.log.Info("session reaper started", "ttl", r.ttl.String(), "interval", r.interval.String())
	return nil
}

// Reap runs one sweep and returns how many sessions were removed.
func (r *SessionReaper) Reap(ctx context.Context) int {
	n, err := r.sessions.DeleteExpired(ctx, r.now().Add(-r.ttl))
	if err != nil {
		r.log.Error("failed to reap run sessions", "error", err, "deleted", n)
		return n
	}
	if n > 0 {
		r.log.Info("reaped expired run sessions", "deleted", n)
	}
	return n
}

func (r *SessionReaper) Stop() error {
	if r.sched == nil {
		return nil
	}
	return r.sched.Shutdown()
}

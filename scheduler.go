package texted

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// newScheduler registers the periodic jobs: metrics retention cleanup,
// login limiter sweeps and, when configured, a full content rescan.
func newScheduler(a *App) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("texted: create scheduler: %w", err)
	}

	if a.MetricsStore != nil {
		days := a.Config.Metrics.RetentionDays
		if _, err := s.NewJob(
			gocron.DurationJob(24*time.Hour),
			gocron.NewTask(func() {
				n, err := a.MetricsStore.Cleanup(context.Background(), days)
				if err != nil {
					slog.Error("Metrics cleanup failed", "error", err)
					return
				}
				slog.Info("Metrics cleanup", "deleted", n, "retention_days", days)
			}),
			gocron.WithName("metrics-cleanup"),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		); err != nil {
			return nil, fmt.Errorf("texted: schedule metrics cleanup: %w", err)
		}
	}

	if _, err := s.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() { a.loginLimiter.Sweep() }),
		gocron.WithName("login-limiter-sweep"),
	); err != nil {
		return nil, fmt.Errorf("texted: schedule limiter sweep: %w", err)
	}

	if d := a.Config.Watch.RescanInterval; d > 0 {
		if _, err := s.NewJob(
			gocron.DurationJob(d),
			gocron.NewTask(func() {
				if err := a.Store.Rescan(); err != nil {
					slog.Error("Periodic rescan failed", "error", err)
					return
				}
				a.Cache.Purge()
				slog.Debug("Periodic rescan", "posts", len(a.Store.Links(KindPost)))
			}),
			gocron.WithName("content-rescan"),
		); err != nil {
			return nil, fmt.Errorf("texted: schedule rescan: %w", err)
		}
	}
	return s, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"versecast/internal/app"
	"versecast/internal/distribution"
	"versecast/internal/metrics"
	"versecast/internal/scheduler"
	"versecast/pkg/config"
)

const dailyJobName = "daily_upload"

var (
	schedulePlaylists bool
	scheduleNow       bool
	scheduleNoMetrics bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run sync and upload every day at schedule.time",
	Long: `Stay in the foreground and run sync followed by upload once a day at the
configured local time (default 17:01). Prometheus metrics are served on
metrics.addr while the scheduler waits. Stop with Ctrl+C.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&schedulePlaylists, "playlists", false, "Reconcile playlists after each upload run")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Run the job once immediately before waiting")
	scheduleCmd.Flags().BoolVar(&scheduleNoMetrics, "no-metrics", false, "Do not serve Prometheus metrics")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	at, err := scheduler.ParseClock(cfg.Schedule.Time)
	if err != nil {
		return err
	}

	svc, err := app.BuildService(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	rec := svc.Metrics()
	daily := scheduler.NewDaily(dailyJobName, at, func(ctx context.Context) error {
		return dailyJob(ctx, svc, schedulePlaylists)
	})
	daily.Expected = func(err error) bool {
		return errors.Is(err, distribution.ErrQuotaExceeded)
	}
	daily.OnResult = func(err error, finished time.Time) {
		rec.JobRun(dailyJobName, jobResult(err), finished)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return daily.Run(gctx, scheduleNow)
	})

	if !scheduleNoMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		server := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			slog.Info("Serving metrics", "addr", cfg.Metrics.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func dailyJob(ctx context.Context, svc *app.Service, playlists bool) error {
	if _, err := svc.Sync(ctx); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	summary, err := svc.UploadPending(ctx, app.UploadOptions{})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	slog.Info("Daily uploads done", "uploaded", summary.Uploaded, "remaining", summary.Remaining)

	if !playlists {
		return nil
	}
	if _, err := svc.ReconcilePlaylists(ctx); err != nil {
		return fmt.Errorf("playlists: %w", err)
	}
	return nil
}

func jobResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, distribution.ErrQuotaExceeded):
		return metrics.ResultQuota
	default:
		return metrics.ResultFailed
	}
}

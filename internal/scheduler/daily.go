// Package scheduler runs a job once a day at a fixed local wall-clock time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q (want HH:MM): %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// NextRun returns today's occurrence of c when it is still ahead of now,
// otherwise tomorrow's.
func NextRun(now time.Time, c Clock) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

type Job func(ctx context.Context) error

type Daily struct {
	name string
	at   Clock
	job  Job

	// Expected reports job errors that are part of normal operation, such
	// as an exhausted daily quota. They are logged as warnings.
	Expected func(error) bool
	// OnResult is called after every run.
	OnResult func(err error, finished time.Time)

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

func NewDaily(name string, at Clock, job Job) *Daily {
	return &Daily{
		name: name,
		at:   at,
		job:  job,
		now:  time.Now,
		wait: sleep,
	}
}

// Run blocks until ctx is cancelled. With immediate set the job also runs
// once before the first scheduled time.
func (d *Daily) Run(ctx context.Context, immediate bool) error {
	slog.Info("Scheduler started", "job", d.name, "at", d.at.String())

	if immediate {
		d.runOnce(ctx)
	}

	for {
		now := d.now()
		next := NextRun(now, d.at)
		wait := next.Sub(now)
		slog.Info("Waiting for next run", "job", d.name, "next", next.Format(time.DateTime), "hours", fmt.Sprintf("%.2f", wait.Hours()))

		if err := d.wait(ctx, wait); err != nil {
			slog.Info("Scheduler stopped", "job", d.name)
			return nil
		}

		d.runOnce(ctx)
	}
}

func (d *Daily) runOnce(ctx context.Context) {
	started := d.now()
	slog.Info("Starting scheduled job", "job", d.name)

	err := d.job(ctx)
	finished := d.now()

	switch {
	case err == nil:
		slog.Info("Scheduled job finished", "job", d.name, "duration", finished.Sub(started))
	case errors.Is(err, context.Canceled):
		slog.Info("Scheduled job interrupted", "job", d.name)
	case d.Expected != nil && d.Expected(err):
		slog.Warn("Scheduled job stopped early", "job", d.name, "error", err)
	default:
		slog.Error("Scheduled job failed", "job", d.name, "error", err)
	}

	if d.OnResult != nil {
		d.OnResult(err, finished)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package scheduler runs the daily anchor recompute pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/service"
)

// Job is the work run at each trigger.
type Job func(ctx context.Context) error

// Daily fires a job once a day at a fixed local wall-clock time. A trigger
// that arrives while the previous run is still going is skipped.
type Daily struct {
	hour, minute int
	job          Job
	logger       logging.Logger

	running atomic.Bool
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time
}

// NewDaily creates a scheduler for hour:minute local time.
func NewDaily(hour, minute int, job Job, logger logging.Logger) (*Daily, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid schedule %02d:%02d", hour, minute)
	}
	if logger == nil {
		logger = logging.Noop()
	}
	return &Daily{
		hour:   hour,
		minute: minute,
		job:    job,
		logger: logger.With(logging.String("component", "scheduler")),
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Next returns the first trigger strictly after t, in t's location.
func (d *Daily) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), d.hour, d.minute, 0, 0, t.Location())
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month(), t.Day()+1, d.hour, d.minute, 0, 0, t.Location())
	}
	return next
}

// Run blocks until ctx is cancelled, firing the job at each trigger.
func (d *Daily) Run(ctx context.Context) {
	d.logger.Info(ctx, "scheduler started", logging.String("at", fmt.Sprintf("%02d:%02d", d.hour, d.minute)))
	for {
		now := d.now()
		next := d.Next(now)
		d.logger.Debug(ctx, "next recompute scheduled", logging.String("next", next.Format(time.RFC3339)))

		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "scheduler stopped")
			return
		case <-d.after(next.Sub(now)):
		}
		go d.Trigger(ctx)
	}
}

// Trigger runs the job now unless a previous run is still in progress. It
// reports whether the job was started.
func (d *Daily) Trigger(ctx context.Context) bool {
	if !d.running.CompareAndSwap(false, true) {
		d.logger.Warn(ctx, "previous recompute still running, trigger skipped")
		return false
	}
	defer d.running.Store(false)

	start := d.now()
	err := d.job(ctx)
	switch {
	case errors.Is(err, service.ErrBatchRunning):
		d.logger.Warn(ctx, "recompute already running elsewhere, trigger skipped")
	case err != nil:
		d.logger.Error(ctx, "scheduled recompute failed", logging.Err(err))
	default:
		d.logger.Info(ctx, "scheduled recompute finished", logging.Duration("elapsed", d.now().Sub(start)))
	}
	return true
}

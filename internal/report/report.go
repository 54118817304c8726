// Package report periodically logs how many messages the board holds. It
// asks the state actor through the command queue like any other client.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"postit/pkg/logger"
)

// DefaultCron runs the report every five minutes.
const DefaultCron = "*/5 * * * *"

// retryDelay is how long to wait when the next tick cannot be computed.
const retryDelay = 30 * time.Second

// Lister is the read side of the state actor.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Reporter logs a message count on a cron schedule.
type Reporter struct {
	cron   string
	lister Lister
	now    func() time.Time
}

// New validates cronExpr (empty means DefaultCron) and returns a Reporter.
func New(cronExpr string, l Lister) (*Reporter, error) {
	if cronExpr == "" {
		cronExpr = DefaultCron
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid report cron expression: %s", cronExpr)
	}
	return &Reporter{cron: cronExpr, lister: l, now: time.Now}, nil
}

// RunOnce issues one List through the queue and logs the count.
func (r *Reporter) RunOnce(ctx context.Context) (int, error) {
	msgs, err := r.lister.List(ctx)
	if err != nil {
		logger.Error("message_report_failed", "error", err)
		return 0, err
	}
	logger.Info("message_report", "count", len(msgs))
	return len(msgs), nil
}

// Next returns the first scheduled tick strictly after t.
func (r *Reporter) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(r.cron, t.UTC(), false)
}

// Run sleeps until each cron tick and reports, until ctx is done. It always
// returns nil.
func (r *Reporter) Run(ctx context.Context) error {
	logger.Info("report_scheduler_started", "cron", r.cron)
	defer logger.Info("report_scheduler_stopping")

	for {
		next, err := r.Next(r.now())
		wait := retryDelay
		if err != nil {
			logger.Error("report_nexttick_failed", "cron", r.cron, "error", err)
		} else {
			wait = time.Until(next)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if err != nil {
			continue
		}
		_, _ = r.RunOnce(ctx)
	}
}

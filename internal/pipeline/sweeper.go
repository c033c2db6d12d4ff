package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Trigger runs one sweep on the server.
type Trigger interface {
	ProcessDue(ctx context.Context, asOf string) (*SweepReport, error)
}

// RunResult contains the outcome of one sweep run.
type RunResult struct {
	AsOf      time.Time
	Converted int
	Failed    []FailedItem
	Duration  time.Duration
}

// Sweeper drives the auto-convert sweep once or on an interval.
type Sweeper struct {
	trigger Trigger
	logger  *zap.SugaredLogger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(trigger Trigger, logger *zap.SugaredLogger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sweeper{trigger: trigger, logger: logger}
}

// RunOnce executes a single sweep and logs every failed item.
func (s *Sweeper) RunOnce(ctx context.Context, asOf string) (*RunResult, error) {
	start := time.Now()

	report, err := s.trigger.ProcessDue(ctx, asOf)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		AsOf:      report.AsOf,
		Converted: len(report.Converted),
		Failed:    report.Failed,
		Duration:  time.Since(start),
	}

	for _, item := range report.Converted {
		s.logger.Debugw("converted upcoming expense",
			"upcoming_expense_id", item.UpcomingID,
			"expense_id", item.ExpenseID,
			"next_occurrence_id", item.NextID,
		)
	}
	for _, f := range report.Failed {
		s.logger.Warnw("conversion failed", "upcoming_expense_id", f.ID, "code", f.Code, "message", f.Message)
	}
	s.logger.Infow("sweep completed",
		"as_of", result.AsOf,
		"converted", result.Converted,
		"failed", len(result.Failed),
		"duration", result.Duration.String(),
	)

	return result, nil
}

// Watch sweeps immediately and then every interval until ctx is cancelled.
// Failed runs are logged and retried on the next tick.
func (s *Sweeper) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infow("watching for due expenses", "interval", interval.String())
	for {
		if _, err := s.RunOnce(ctx, ""); err != nil && ctx.Err() == nil {
			s.logger.Errorw("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

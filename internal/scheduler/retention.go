package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/events"
)

// ResultPruner deletes stored simulation runs older than the given
// number of days and reports how many were removed.
type ResultPruner interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// RetentionJob prunes old simulation results on a schedule.
type RetentionJob struct {
	pruner        ResultPruner
	retentionDays int
	events        *events.Manager
	log           zerolog.Logger
}

// NewRetentionJob creates a retention job
func NewRetentionJob(pruner ResultPruner, retentionDays int, eventManager *events.Manager, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		pruner:        pruner,
		retentionDays: retentionDays,
		events:        eventManager,
		log:           log.With().Str("job", "result_retention").Logger(),
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "result_retention"
}

// Run deletes simulation runs past the retention window
func (j *RetentionJob) Run(ctx context.Context) error {
	deleted, err := j.pruner.DeleteOlderThan(ctx, j.retentionDays)
	if err != nil {
		return fmt.Errorf("prune simulation results: %w", err)
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted_runs", deleted).
			Int("retention_days", j.retentionDays).
			Msg("Old simulation results removed")
	}

	j.events.Emit(events.RetentionCompleted, "scheduler", map[string]interface{}{
		"deleted_runs":   deleted,
		"retention_days": j.retentionDays,
	})

	return nil
}

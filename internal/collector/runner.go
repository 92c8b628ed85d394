package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/logger"
	"github.com/MrSnakeDoc/sightings/internal/pipeline"
	"github.com/MrSnakeDoc/sightings/internal/store"
)

// Runner wraps one invocation of the pipeline and records its outcome.
type Runner struct {
	pipeline pipeline.Pipeline
	stats    *domain.CollectionStats
	store    *store.Store
	logger   logger.Logger
	now      func() time.Time
}

// NewRunner creates a runner that mutates stats and persists it through st
func NewRunner(
	p pipeline.Pipeline,
	stats *domain.CollectionStats,
	st *store.Store,
	log logger.Logger,
) *Runner {
	return &Runner{
		pipeline: p,
		stats:    stats,
		store:    st,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock replaces the time source (tests).
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run invokes the pipeline exactly once and returns the count it reported.
//
// On success the stats are updated and saved. On failure the error is logged
// and returned, and the stats are left untouched and not saved. Run never
// retries; the next scheduled run is independent.
func (r *Runner) Run(ctx context.Context) (int64, error) {
	runID := uuid.NewString()
	started := r.now()

	r.logger.Info("starting collection cycle", logger.String("run_id", runID))

	count, err := r.pipeline.RunCollectionCycle(ctx)
	if err == nil && count < 0 {
		err = fmt.Errorf("pipeline reported a negative count: %d", count)
	}
	if err != nil {
		r.logger.Error("collection cycle failed",
			logger.String("run_id", runID),
			logger.Duration("duration", r.now().Sub(started)),
			logger.Error(err))
		return 0, err
	}

	finished := r.now()
	r.stats.RecordRun(count, finished)

	r.logger.Info("collection cycle completed",
		logger.String("run_id", runID),
		logger.Int64("new_sightings", count),
		logger.Int64("total_runs", r.stats.TotalRuns),
		logger.Int64("total_sightings", r.stats.TotalSightings),
		logger.Duration("duration", finished.Sub(started)))

	r.store.Save(ctx, r.stats)

	return count, nil
}

package collector

import (
	"time"

	"go.uber.org/zap"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/logger"
)

// ReportStatus logs a read-only summary of stats as of now. A zero next is
// left out of the entry.
func ReportStatus(log logger.Logger, stats *domain.CollectionStats, now, next time.Time) {
	fields := []zap.Field{
		logger.Time("start_time", stats.StartTime),
		logger.Duration("uptime", stats.Uptime(now).Truncate(time.Second)),
		logger.Int64("total_runs", stats.TotalRuns),
		logger.Int64("total_sightings", stats.TotalSightings),
		logger.Int64("last_sighting_count", stats.LastSightingCount),
		logger.Int("sources", len(stats.SourcesSummary)),
	}
	if stats.LastRun != nil {
		fields = append(fields,
			logger.Time("last_run", *stats.LastRun),
			logger.Duration("since_last_run", now.Sub(*stats.LastRun).Truncate(time.Second)))
	} else {
		fields = append(fields, logger.String("last_run", "never"))
	}

	if !next.IsZero() {
		fields = append(fields,
			logger.Time("next_run", next),
			logger.Duration("next_run_in", next.Sub(now).Truncate(time.Second)))
	}

	log.Info("service status", fields...)
}

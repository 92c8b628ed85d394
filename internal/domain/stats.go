package domain

import (
	"maps"
	"time"
)

// CollectionStats is the cumulative record of collection activity.
//
// It has a single owner (the service controller). Other components receive
// a pointer to mutate it or a copy to read it.
type CollectionStats struct {
	// ─────────────────────────────
	// Counters (monotonic, cumulative across restarts)
	// ─────────────────────────────

	// TotalRuns is the number of successful collection cycles.
	TotalRuns int64 `json:"total_runs" yaml:"total_runs"`

	// TotalSightings is the sum of counts returned by successful cycles.
	TotalSightings int64 `json:"total_sightings" yaml:"total_sightings"`

	// ─────────────────────────────
	// Last observation
	// ─────────────────────────────

	// LastRun is the completion time of the most recent successful cycle.
	// Nil until the first one completes.
	LastRun *time.Time `json:"last_run" yaml:"last_run"`

	// LastSightingCount is the count returned by the most recent successful cycle.
	LastSightingCount int64 `json:"last_sighting_count" yaml:"last_sighting_count"`

	// ─────────────────────────────
	// Extension & provenance
	// ─────────────────────────────

	// SourcesSummary is reserved for per-source metadata.
	// The collector itself never writes to it.
	SourcesSummary map[string]any `json:"sources_summary" yaml:"sources_summary"`

	// StartTime is when the service first started. Set at construction and
	// restored from persisted data when present.
	StartTime time.Time `json:"start_time" yaml:"start_time"`
}

// NewCollectionStats returns the default record for a service starting at now.
func NewCollectionStats(now time.Time) *CollectionStats {
	return &CollectionStats{
		SourcesSummary: map[string]any{},
		StartTime:      now,
	}
}

// RecordRun applies one successful cycle that found count items at t.
func (s *CollectionStats) RecordRun(count int64, t time.Time) {
	s.TotalRuns++
	s.TotalSightings += count
	s.LastRun = &t
	s.LastSightingCount = count
}

// Clone returns a deep copy safe to hand to readers outside the owner.
func (s *CollectionStats) Clone() CollectionStats {
	c := *s
	if s.LastRun != nil {
		t := *s.LastRun
		c.LastRun = &t
	}
	c.SourcesSummary = maps.Clone(s.SourcesSummary)
	if c.SourcesSummary == nil {
		c.SourcesSummary = map[string]any{}
	}
	return c
}

// Uptime reports how long the service has been running relative to now.
func (s *CollectionStats) Uptime(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}

// StatsPatch is a partially populated CollectionStats as read from storage.
// A nil field was absent in the persisted data.
type StatsPatch struct {
	TotalRuns         *int64         `json:"total_runs" yaml:"total_runs"`
	TotalSightings    *int64         `json:"total_sightings" yaml:"total_sightings"`
	LastRun           *time.Time     `json:"last_run" yaml:"last_run"`
	LastSightingCount *int64         `json:"last_sighting_count" yaml:"last_sighting_count"`
	SourcesSummary    map[string]any `json:"sources_summary" yaml:"sources_summary"`
	StartTime         *time.Time     `json:"start_time" yaml:"start_time"`
}

// Overlay copies every field present in p onto s. Absent fields keep their
// current value.
func (s *CollectionStats) Overlay(p *StatsPatch) {
	if p == nil {
		return
	}
	if p.TotalRuns != nil {
		s.TotalRuns = *p.TotalRuns
	}
	if p.TotalSightings != nil {
		s.TotalSightings = *p.TotalSightings
	}
	if p.LastRun != nil {
		t := *p.LastRun
		s.LastRun = &t
	}
	if p.LastSightingCount != nil {
		s.LastSightingCount = *p.LastSightingCount
	}
	if p.SourcesSummary != nil {
		s.SourcesSummary = maps.Clone(p.SourcesSummary)
	}
	if p.StartTime != nil && !p.StartTime.IsZero() {
		s.StartTime = *p.StartTime
	}
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/logger"
)

// ErrNotFound is returned by a Backend that holds no persisted stats yet.
var ErrNotFound = errors.New("stats not found")

// Backend reads and writes the persisted stats record.
type Backend interface {
	// Load returns the persisted record, or ErrNotFound when there is none.
	Load(ctx context.Context) (*domain.StatsPatch, error)
	// Save overwrites the persisted record.
	Save(ctx context.Context, stats domain.CollectionStats) error
	// Name identifies the backend in logs.
	Name() string
}

// Store is the best-effort persistence layer in front of a Backend.
// Neither Load nor Save ever fails the caller: problems are logged.
type Store struct {
	backend Backend
	logger  logger.Logger
}

// New creates a Store over backend
func New(backend Backend, log logger.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  log,
	}
}

// Load overlays the persisted record onto stats. It reports whether any
// persisted data was applied.
func (s *Store) Load(ctx context.Context, stats *domain.CollectionStats) bool {
	patch, err := s.backend.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("no persisted stats found, starting fresh",
				logger.String("backend", s.backend.Name()))
			return false
		}
		s.logger.Warn("failed to load stats, starting fresh",
			logger.String("backend", s.backend.Name()),
			logger.Error(err))
		return false
	}

	stats.Overlay(patch)
	s.logger.Info("loaded persisted stats",
		logger.String("backend", s.backend.Name()),
		logger.Int64("total_runs", stats.TotalRuns),
		logger.Int64("total_sightings", stats.TotalSightings))
	return true
}

// Save persists a copy of stats. Failures are logged and dropped.
func (s *Store) Save(ctx context.Context, stats *domain.CollectionStats) {
	if err := s.backend.Save(ctx, stats.Clone()); err != nil {
		s.logger.Warn("failed to save stats",
			logger.String("backend", s.backend.Name()),
			logger.Error(err))
		return
	}
	s.logger.Debug("stats saved", logger.String("backend", s.backend.Name()))
}

// Mirror fans saves out to every backend and loads from the first backend
// that has data.
type Mirror struct {
	backends []Backend
}

// NewMirror creates a Mirror. Backends are consulted in the given order on Load.
func NewMirror(backends ...Backend) *Mirror {
	return &Mirror{backends: backends}
}

func (m *Mirror) Name() string { return "mirror" }

// Load returns the first record found. A backend error does not stop the
// search; it is returned only if no backend had data.
func (m *Mirror) Load(ctx context.Context) (*domain.StatsPatch, error) {
	var errs []error
	for _, b := range m.backends {
		patch, err := b.Load(ctx)
		if err == nil {
			return patch, nil
		}
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, ErrNotFound
}

// Save writes to every backend, even when an earlier one fails.
func (m *Mirror) Save(ctx context.Context, stats domain.CollectionStats) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.Save(ctx, stats); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	return errors.Join(errs...)
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/store"
)

// Backend mirrors the stats record into Redis as a single JSON value.
type Backend struct {
	client *redis.Client
	key    string
}

// NewBackend creates a Redis stats backend
func NewBackend(client *redis.Client, instance string) *Backend {
	return &Backend{
		client: client,
		key:    StatsKey(instance),
	}
}

func (b *Backend) Name() string { return "redis" }

// Load retrieves the stats record
func (b *Backend) Load(ctx context.Context) (*domain.StatsPatch, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	var patch domain.StatsPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	return &patch, nil
}

// Save stores the stats record without expiry
func (b *Backend) Save(ctx context.Context, stats domain.CollectionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}

	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/store"
)

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBackendReportsConnectionErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b := NewBackend(unreachableClient(t), "")

	if _, err := b.Load(ctx); err == nil || errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load() error = %v, want a connection error", err)
	}
	if err := b.Save(ctx, domain.NewCollectionStats(time.Now()).Clone()); err == nil {
		t.Error("Save() should fail when redis is unreachable")
	}
}

func TestBackendName(t *testing.T) {
	if got := NewBackend(unreachableClient(t), "x").Name(); got != "redis" {
		t.Errorf("Name() = %q", got)
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestBackendLoadMissingKey(t *testing.T) {
	_, client := newMiniredis(t)

	_, err := NewBackend(client, "").Load(context.Background())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestBackendRoundTrip(t *testing.T) {
	_, client := newMiniredis(t)
	ctx := context.Background()
	b := NewBackend(client, "")

	started := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	want := domain.NewCollectionStats(started)
	want.RecordRun(4, started.Add(15*time.Minute))
	want.RecordRun(9, started.Add(30*time.Minute))
	want.SourcesSummary = map[string]any{"inaturalist": float64(13)}

	if err := b.Save(ctx, want.Clone()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	patch, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	got := domain.NewCollectionStats(time.Time{})
	got.Overlay(patch)

	if got.TotalRuns != 2 || got.TotalSightings != 13 || got.LastSightingCount != 9 {
		t.Errorf("counters = %+v", got)
	}
	if got.LastRun == nil || !got.LastRun.Equal(*want.LastRun) {
		t.Errorf("last_run = %v, want %v", got.LastRun, want.LastRun)
	}
	if !got.StartTime.Equal(started) {
		t.Errorf("start_time = %v, want %v", got.StartTime, started)
	}
	if got.SourcesSummary["inaturalist"] != float64(13) {
		t.Errorf("sources_summary = %v", got.SourcesSummary)
	}
}

func TestBackendUsesInstanceKey(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()

	stats := domain.NewCollectionStats(time.Now())
	stats.RecordRun(5, time.Now())

	if err := NewBackend(client, "eu").Save(ctx, stats.Clone()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	raw, err := mr.Get(StatsKey("eu"))
	if err != nil {
		t.Fatalf("key %q not written: %v", StatsKey("eu"), err)
	}
	var decoded struct {
		TotalSightings int64 `json:"total_sightings"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.TotalSightings != 5 {
		t.Errorf("total_sightings = %d, want 5", decoded.TotalSightings)
	}

	if mr.Exists(StatsKey("")) {
		t.Errorf("default key %q should not be written", StatsKey(""))
	}
	if _, err := NewBackend(client, "us").Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("other instance Load() error = %v, want ErrNotFound", err)
	}
	if mr.TTL(StatsKey("eu")) != 0 {
		t.Errorf("stats key should not expire")
	}
}

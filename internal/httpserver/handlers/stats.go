package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/httpserver/deps"
)

type statsResponse struct {
	domain.CollectionStats
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Stats serves the latest published stats snapshot. It never reads the live
// record owned by the collection loop.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		var snap *domain.CollectionStats
		if d.Snapshot != nil {
			snap = d.Snapshot()
		}
		if snap == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(errorResponse{Error: "stats not loaded yet"})
			return
		}

		_ = json.NewEncoder(w).Encode(statsResponse{
			CollectionStats: *snap,
			UptimeSeconds:   snap.Uptime(d.Now()).Seconds(),
		})
	}
}

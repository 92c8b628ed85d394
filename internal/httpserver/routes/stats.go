package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sightings/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sightings/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sightings/internal/httpserver/mw"
)

func init() { Register(registerStats) }

func registerStats(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.Logger)).Get("/stats", handlers.Stats(d))
	})
}

package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/cofc/campushunt/internal/auth"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps, limiter *claimLimiter) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Campus Hunt API", "/openapi.json", "/docs"))
	if deps.Mount != nil {
		deps.Mount(r)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(deps.Verifier, logger))

		r.Get("/locations", handleListLocations(logger, deps.Store, deps.Sweeper, deps.Now))
		r.Get("/locations/stream", handleLocationStream(logger, deps.Store, deps.Now, deps.StreamRefresh))
		r.Get("/locations/{id}", handleGetLocation(logger, deps.Store, deps.Now))
		r.With(limiter.middleware).Post("/locations/{id}/claim", handleClaim(logger, deps.Store, deps.Awarder))
		r.Get("/nearby", handleNearby(logger, deps.Store))
		r.Get("/me", handleMe(logger, deps.Awarder))
		r.Get("/leaderboard", handleLeaderboard(logger, deps.Store))

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin(deps.Store, logger))
			r.Post("/locations", handleAdminCreateLocation(logger, deps.Store, deps.Now))
			r.Put("/locations/{id}", handleAdminUpdateLocation(logger, deps.Store, deps.Now))
			r.Delete("/locations/{id}", handleAdminDeleteLocation(logger, deps.Store))
			r.Post("/sweep", handleAdminSweep(logger, deps.Store, deps.Sweeper))
			r.Get("/expired", handleAdminListExpired(logger, deps.Store))
		})
	})
}

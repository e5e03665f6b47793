package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

// NearbyResponse lists the locations within claiming range.
type NearbyResponse struct {
	IDs          []string `json:"ids"`
	RadiusMeters float64  `json:"radiusMeters"`
}

// buildFeed classifies every live location at now and sweeps the expired
// ones. Locations that fail to sweep stay in the feed, marked expired.
func buildFeed(ctx context.Context, logger *slog.Logger, store Store, sweeper *hunt.Sweeper, now time.Time) ([]hunt.FeedItem, error) {
	locs, err := loadLocations(ctx, logger, store)
	if err != nil {
		return nil, err
	}

	items := hunt.ClassifyFeed(locs, now)
	feed := items[:0]
	for _, it := range items {
		if it.TimeState != nil && it.TimeState.Expired() {
			if err := sweeper.Sweep(ctx, it.Location); err == nil {
				continue
			}
		}
		feed = append(feed, it)
	}
	return feed, nil
}

func handleListLocations(logger *slog.Logger, store Store, sweeper *hunt.Sweeper, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := buildFeed(r.Context(), logger, store, sweeper, now())
		if err != nil {
			writeFailure(w, logger, "listing locations", err)
			return
		}
		writeJSON(w, http.StatusOK, feed)
	}
}

func handleGetLocation(logger *slog.Logger, store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := loadLocation(r, store)
		if err != nil {
			writeFailure(w, logger, "loading location", err)
			return
		}
		writeJSON(w, http.StatusOK, hunt.ClassifyFeed([]hunt.Location{loc}, now())[0])
	}
}

func handleNearby(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		at, msg := parsePosition(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		locs, err := loadLocations(r.Context(), logger, store)
		if err != nil {
			writeFailure(w, logger, "listing locations", err)
			return
		}
		writeJSON(w, http.StatusOK, NearbyResponse{
			IDs:          hunt.Nearby(at, locs),
			RadiusMeters: hunt.EligibilityRadiusMeters,
		})
	}
}

// loadLocations lists live locations, skipping documents that do not decode.
func loadLocations(ctx context.Context, logger *slog.Logger, store Store) ([]hunt.Location, error) {
	locs, err := hunt.LoadLocations(ctx, store)
	if errors.Is(err, hunt.ErrTransientIO) {
		return nil, err
	}
	if err != nil {
		logger.Warn("skipping undecodable locations", "error", err)
	}
	return locs, nil
}

func loadLocation(r *http.Request, store Store) (hunt.Location, error) {
	id := chi.URLParam(r, "id")
	var loc hunt.Location
	if err := store.Get(r.Context(), hunt.CollectionLocations, id, &loc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return hunt.Location{}, hunt.ErrNotFound
		}
		return hunt.Location{}, err
	}
	loc.ID = id
	return loc, nil
}

func parsePosition(lat, lon string) (hunt.Position, string) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return hunt.Position{}, "lat must be a number"
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return hunt.Position{}, "lon must be a number"
	}
	p := hunt.Position{Lat: la, Lon: lo}
	if msg := validatePosition(p); msg != "" {
		return hunt.Position{}, msg
	}
	return p, ""
}

func validatePosition(p hunt.Position) string {
	if !(p.Lat >= -90 && p.Lat <= 90) {
		return "latitude must be between -90 and 90"
	}
	if !(p.Lon >= -180 && p.Lon <= 180) {
		return "longitude must be between -180 and 180"
	}
	return ""
}

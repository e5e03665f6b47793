package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

// LocationRequest is the body for creating or replacing a location. An
// event takes its schedule either as form input or as stored values.
type LocationRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Latitude    float64             `json:"latitude"`
	Longitude   float64             `json:"longitude"`
	IsEvent     bool                `json:"isEvent"`
	Schedule    *hunt.ScheduleInput `json:"schedule,omitempty"`
	StartTime   string              `json:"startTime,omitempty"`
	Duration    int                 `json:"duration,omitempty"`
}

func (req *LocationRequest) toLocation() (hunt.Location, string) {
	loc := hunt.Location{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsEvent:     req.IsEvent,
	}
	if loc.Title == "" {
		return hunt.Location{}, "title is required"
	}
	if msg := validatePosition(loc.Position()); msg != "" {
		return hunt.Location{}, msg
	}
	if !req.IsEvent {
		return loc, ""
	}

	switch {
	case req.Schedule != nil:
		start, minutes, err := hunt.ParseSchedule(*req.Schedule)
		if err != nil {
			return hunt.Location{}, err.Error()
		}
		loc.StartTime, loc.Duration = start, minutes
	default:
		if _, err := hunt.ParseStartTime(req.StartTime, time.UTC); err != nil {
			return hunt.Location{}, "startTime must look like 2006-01-02T15:04:05"
		}
		if req.Duration <= 0 {
			return hunt.Location{}, "duration must be a positive number of minutes"
		}
		loc.StartTime, loc.Duration = req.StartTime, req.Duration
	}
	return loc, ""
}

// ExpiredLocation is an archive entry.
type ExpiredLocation struct {
	ID string `json:"id"`
	hunt.Location
	ExpiredAt string `json:"expiredAt"`
}

// SweepResponse reports a manual sweep. Failed locations stay live and are
// retried by the next pass.
type SweepResponse struct {
	Moved  int `json:"moved"`
	Failed int `json:"failed"`
}

func handleAdminCreateLocation(logger *slog.Logger, store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		loc, msg := req.toLocation()
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		id, err := store.Create(r.Context(), hunt.CollectionLocations, loc)
		if err != nil {
			writeFailure(w, logger, "creating location", err)
			return
		}
		loc.ID = id
		logger.Info("location created", "location_id", id, "title", loc.Title, "is_event", loc.IsEvent)
		writeJSON(w, http.StatusCreated, hunt.ClassifyFeed([]hunt.Location{loc}, now())[0])
	}
}

func handleAdminUpdateLocation(logger *slog.Logger, store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		loc, msg := req.toLocation()
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		if _, err := loadLocation(r, store); err != nil {
			writeFailure(w, logger, "loading location", err)
			return
		}
		loc.ID = chi.URLParam(r, "id")
		if err := store.Set(r.Context(), hunt.CollectionLocations, loc.ID, loc); err != nil {
			writeFailure(w, logger, "updating location", err)
			return
		}
		logger.Info("location updated", "location_id", loc.ID, "title", loc.Title)
		writeJSON(w, http.StatusOK, hunt.ClassifyFeed([]hunt.Location{loc}, now())[0])
	}
}

func handleAdminDeleteLocation(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), hunt.CollectionLocations, id); err != nil {
			writeFailure(w, logger, "deleting location", err)
			return
		}
		logger.Info("location deleted", "location_id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAdminSweep(logger *slog.Logger, store Store, sweeper *hunt.Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locs, err := loadLocations(r.Context(), logger, store)
		if err != nil {
			writeFailure(w, logger, "listing locations", err)
			return
		}
		res, err := sweeper.SweepExpired(r.Context(), locs)
		if err != nil {
			logger.Warn("manual sweep incomplete", "moved", res.Moved, "failed", res.Failed, "error", err)
		}
		writeJSON(w, http.StatusOK, SweepResponse{Moved: res.Moved, Failed: res.Failed})
	}
}

func handleAdminListExpired(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := store.List(r.Context(), hunt.CollectionExpired, docstore.Query{OrderBy: "expiredAt", Desc: true})
		if err != nil {
			writeFailure(w, logger, "listing expired locations", err)
			return
		}

		out := make([]ExpiredLocation, 0, len(docs))
		for _, d := range docs {
			var e ExpiredLocation
			if err := d.Decode(&e); err != nil {
				logger.Warn("skipping undecodable archive entry", "doc_id", d.ID, "error", err)
				continue
			}
			out = append(out, e)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

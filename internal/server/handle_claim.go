package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cofc/campushunt/internal/auth"
	"github.com/cofc/campushunt/internal/hunt"
)

// ClaimRequest carries the caller's current position.
type ClaimRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (req *ClaimRequest) validate() (hunt.Position, string) {
	if req.Latitude == nil || req.Longitude == nil {
		return hunt.Position{}, "latitude and longitude are required"
	}
	p := hunt.Position{Lat: *req.Latitude, Lon: *req.Longitude}
	if msg := validatePosition(p); msg != "" {
		return hunt.Position{}, msg
	}
	return p, ""
}

type ClaimResponse struct {
	hunt.Outcome
	Message string `json:"message"`
}

type ProfileResponse struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Badges []string `json:"badges"`
}

func handleClaim(logger *slog.Logger, store Store, awarder *hunt.Awarder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := awarder.Claimant(r.Context()); !ok {
			out := hunt.Outcome{Kind: hunt.NotLoggedIn}
			writeJSON(w, http.StatusUnauthorized, ClaimResponse{Outcome: out, Message: out.Message()})
			return
		}

		var req ClaimRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		at, msg := req.validate()
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		loc, err := loadLocation(r, store)
		if err != nil {
			writeFailure(w, logger, "loading location", err)
			return
		}

		out, err := awarder.TryAward(r.Context(), at, loc)
		if err != nil {
			writeFailure(w, logger, "claiming badge", err)
			return
		}

		writeJSON(w, http.StatusOK, ClaimResponse{Outcome: out, Message: out.Message()})
	}
}

func handleMe(logger *slog.Logger, awarder *hunt.Awarder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := awarder.Profile(r.Context())
		switch {
		case errors.Is(err, hunt.ErrPermissionDenied):
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		case errors.Is(err, hunt.ErrNotFound):
			// No claim yet, so no user document.
			id, _ := auth.IdentityFrom(r.Context())
			u = hunt.User{ID: id.UserID, Email: id.Email, Badges: []string{}}
		case err != nil:
			writeFailure(w, logger, "loading profile", err)
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{ID: u.ID, Email: u.Email, Badges: u.Badges})
	}
}

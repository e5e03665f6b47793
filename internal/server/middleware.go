package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cofc/campushunt/internal/auth"
	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

// adminFlag is the part of a user document that grants admin routes.
type adminFlag struct {
	IsAdmin bool `json:"isAdmin"`
}

// requireAdmin lets a request through only when the caller's user document
// has isAdmin set.
func requireAdmin(store Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			var flag adminFlag
			err := store.Get(r.Context(), hunt.CollectionUsers, id.UserID, &flag)
			if err != nil && !errors.Is(err, docstore.ErrNotFound) {
				logger.Error("loading admin flag failed", "user_id", id.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !flag.IsAdmin {
				logger.Warn("admin route denied", "user_id", id.UserID, "path", r.URL.Path)
				writeError(w, http.StatusForbidden, "admin only")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

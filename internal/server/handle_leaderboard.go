package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 50
)

// Explorer is one leaderboard row.
type Explorer struct {
	DisplayName string `json:"displayName"`
	BadgeCount  int    `json:"badgeCount"`
}

func handleLeaderboard(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLeaderboardSize
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > maxLeaderboardSize {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxLeaderboardSize))
				return
			}
			limit = n
		}

		docs, err := store.List(r.Context(), hunt.CollectionUsers, docstore.Query{
			OrderBy: "badges", ByLength: true, Desc: true, Limit: limit,
		})
		if err != nil {
			writeFailure(w, logger, "listing users", err)
			return
		}

		out := make([]Explorer, 0, len(docs))
		for _, d := range docs {
			var u hunt.User
			if err := d.Decode(&u); err != nil {
				logger.Warn("skipping undecodable user", "doc_id", d.ID, "error", err)
				continue
			}
			out = append(out, Explorer{DisplayName: displayName(u.Email), BadgeCount: len(u.Badges)})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// displayName keeps addresses off the public board.
func displayName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if name == "" {
		return "Explorer"
	}
	return name
}

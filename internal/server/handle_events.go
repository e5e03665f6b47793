package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cofc/campushunt/internal/hunt"
)

// handleLocationStream pushes the classified feed as server-sent events:
// one "snapshot" event on connect, after every change to the locations
// collection, and on each refresh tick so phase changes reach idle clients.
func handleLocationStream(logger *slog.Logger, store Store, now func() time.Time, refresh time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		sub := store.Subscribe(r.Context(), hunt.CollectionLocations)
		defer sub.Close()

		ticker := time.NewTicker(refresh)
		defer ticker.Stop()

		var latest []hunt.Location
		send := func() {
			data, err := json.Marshal(hunt.ClassifyFeed(latest, now()))
			if err != nil {
				logger.Error("encoding feed snapshot failed", "error", err)
				return
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case snap, ok := <-sub.C:
				if !ok {
					return
				}
				if snap.Err != nil {
					logger.Error("location snapshot failed", "error", snap.Err)
					continue
				}
				locs, err := hunt.DecodeLocations(snap.Docs)
				if err != nil {
					logger.Warn("skipping undecodable locations", "error", err)
				}
				latest = locs
				send()
			case <-ticker.C:
				send()
			}
		}
	}
}

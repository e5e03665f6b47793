package hunt

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cofc/campushunt/internal/docstore"
)

// FeedItem is a live location together with its schedule status.
type FeedItem struct {
	ID string `json:"id"`
	Location
	TimeState *TimeState `json:"timeState,omitempty"`
	Countdown string     `json:"countdown,omitempty"`
}

// ClassifyFeed pairs each location with its time state at now.
func ClassifyFeed(locs []Location, now time.Time) []FeedItem {
	items := make([]FeedItem, len(locs))
	for i, l := range locs {
		items[i] = FeedItem{ID: l.ID, Location: l}
		if st, ok := ClassifyLocation(l, now); ok {
			items[i].TimeState = &st
			items[i].Countdown = st.Countdown()
		}
	}
	return items
}

type Subscriber interface {
	Subscribe(ctx context.Context, collection string) *docstore.Subscription
}

// Watcher follows the live locations collection and sweeps events once they
// expire. Every snapshot triggers a fresh pass; a ticker repeats the pass
// over the latest snapshot so events also expire when nothing is written.
type Watcher struct {
	source   Subscriber
	sweeper  *Sweeper
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	latest []Location
	ready  chan struct{}
	once   sync.Once
}

func NewWatcher(source Subscriber, sweeper *Sweeper, logger *slog.Logger, interval time.Duration) *Watcher {
	return &Watcher{
		source:   source,
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		ready:    make(chan struct{}),
	}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	sub := w.source.Subscribe(ctx, CollectionLocations)
	defer sub.Close()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("location watcher started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("location watcher stopped")
			return nil
		case snap, ok := <-sub.C:
			if !ok {
				w.logger.Info("location watcher stopped")
				return nil
			}
			if snap.Err != nil {
				w.logger.Error("location snapshot failed", "error", snap.Err)
				continue
			}
			locs, err := DecodeLocations(snap.Docs)
			if err != nil {
				w.logger.Warn("skipping undecodable locations", "error", err)
			}
			w.mu.Lock()
			w.latest = locs
			w.mu.Unlock()
			w.pass(ctx)
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *Watcher) pass(ctx context.Context) {
	w.mu.Lock()
	locs := w.latest
	w.mu.Unlock()

	// Failures stay live and are retried by a later pass.
	res, err := w.sweeper.SweepExpired(ctx, locs)
	if err != nil {
		w.logger.Warn("sweep deferred", "moved", res.Moved, "failed", res.Failed, "error", err)
	}
	w.once.Do(func() { close(w.ready) })
}

// Ready is closed after the first pass.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

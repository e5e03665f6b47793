package hunt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cofc/campushunt/internal/docstore"
)

func TestClassifyFeed(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)
	locs := []Location{
		{ID: "poi", Title: "Randolph Hall"},
		lateEvent,
	}

	items := ClassifyFeed(locs, now)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "poi" || items[0].TimeState != nil || items[0].Countdown != "" {
		t.Errorf("point of interest item = %+v", items[0])
	}
	if items[1].TimeState == nil || items[1].TimeState.Phase != PhaseActive {
		t.Fatalf("event item = %+v, want active", items[1])
	}
	if items[1].Countdown != "30m 0s" {
		t.Errorf("countdown = %q", items[1].Countdown)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatcherSweepsExpired(t *testing.T) {
	store := newDocStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poi := Location{Title: "Addlestone Library", Latitude: 32.783608, Longitude: -79.937340}
	poiID, err := store.Create(ctx, CollectionLocations, poi)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, CollectionLocations, lateEvent.ID, lateEvent); err != nil {
		t.Fatal(err)
	}

	now := fixedNow(time.Date(2025, 1, 1, 11, 1, 0, 0, time.UTC))
	w := NewWatcher(store, NewSweeper(store, quietLogger(), nil, now), quietLogger(), 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never became ready")
	}

	waitFor(t, "expired event to leave the live collection", func() bool {
		var l Location
		return errors.Is(store.Get(ctx, CollectionLocations, lateEvent.ID, &l), docstore.ErrNotFound)
	})
	waitFor(t, "archive copy of the swept event", func() bool {
		docs, err := store.List(ctx, CollectionExpired, docstore.Query{})
		return err == nil && len(docs) == 1
	})

	var kept Location
	if err := store.Get(ctx, CollectionLocations, poiID, &kept); err != nil {
		t.Errorf("point of interest removed: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherSeesNewEvents(t *testing.T) {
	store := newDocStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := fixedNow(time.Date(2025, 1, 1, 11, 30, 0, 0, time.UTC))
	// The ticker never fires, so only the write can trigger the sweep.
	w := NewWatcher(store, NewSweeper(store, quietLogger(), nil, now), quietLogger(), time.Hour)
	go w.Run(ctx)
	<-w.Ready()

	if err := store.Set(ctx, CollectionLocations, lateEvent.ID, lateEvent); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "event written after start to be swept", func() bool {
		var l Location
		return errors.Is(store.Get(ctx, CollectionLocations, lateEvent.ID, &l), docstore.ErrNotFound)
	})
}

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

func TestAdminRequiresFlag(t *testing.T) {
	env := newTestEnv(t)
	body := LocationRequest{Title: "Stern Center", Latitude: 32.7837, Longitude: -79.9385}

	if rec := env.do(t, http.MethodPost, "/api/admin/locations", "", body); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := env.do(t, http.MethodPost, "/api/admin/locations", env.token(t, "student"), body); rec.Code != http.StatusForbidden {
		t.Errorf("student status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if rec := env.do(t, http.MethodPost, "/api/admin/locations", env.makeAdmin(t, "staff"), body); rec.Code != http.StatusCreated {
		t.Errorf("admin status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestAdminCreateLocation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.makeAdmin(t, "staff")

	tests := []struct {
		name       string
		body       LocationRequest
		wantStatus int
		wantStart  string
		wantMins   int
	}{
		{
			name:       "landmark",
			body:       LocationRequest{Title: " Stern Center ", Latitude: 32.7837, Longitude: -79.9385},
			wantStatus: http.StatusCreated,
		},
		{
			name: "event from form input",
			body: LocationRequest{
				Title: "Movie Night", Latitude: 32.7837, Longitude: -79.9385, IsEvent: true,
				Schedule: &hunt.ScheduleInput{Date: "01/01/2025", Time: "7:30", Period: "PM", Duration: "02:00"},
			},
			wantStatus: http.StatusCreated,
			wantStart:  "2025-01-01T19:30:00",
			wantMins:   120,
		},
		{
			name: "event with stored values",
			body: LocationRequest{
				Title: "Tailgate", Latitude: 32.7837, Longitude: -79.9385, IsEvent: true,
				StartTime: "2025-01-01T11:00:00", Duration: 90,
			},
			wantStatus: http.StatusCreated,
			wantStart:  "2025-01-01T11:00:00",
			wantMins:   90,
		},
		{
			name:       "missing title",
			body:       LocationRequest{Latitude: 32.7837, Longitude: -79.9385},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad longitude",
			body:       LocationRequest{Title: "Nowhere", Latitude: 10, Longitude: 200},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "event without schedule",
			body: LocationRequest{
				Title: "Mystery", Latitude: 32.7837, Longitude: -79.9385, IsEvent: true,
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "impossible date",
			body: LocationRequest{
				Title: "Leap", Latitude: 32.7837, Longitude: -79.9385, IsEvent: true,
				Schedule: &hunt.ScheduleInput{Date: "02/30/2025", Time: "10:00", Period: "AM", Duration: "01:00"},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/admin/locations", tok, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			item := decode[hunt.FeedItem](t, rec)
			if item.ID == "" {
				t.Error("missing id")
			}
			if item.StartTime != tt.wantStart || item.Duration != tt.wantMins {
				t.Errorf("schedule = (%q, %d), want (%q, %d)", item.StartTime, item.Duration, tt.wantStart, tt.wantMins)
			}
		})
	}
}

func TestAdminUpdateDeleteLocation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.makeAdmin(t, "staff")
	id := env.addLocation(t, cisternYard)

	update := LocationRequest{Title: "Cistern Yard", Description: "Now with chairs", Latitude: 32.78374, Longitude: -79.93708}
	rec := env.do(t, http.MethodPut, "/api/admin/locations/"+id, tok, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	if item := decode[hunt.FeedItem](t, rec); item.Description != "Now with chairs" || item.ID != id {
		t.Errorf("updated = %+v", item)
	}

	if rec := env.do(t, http.MethodPut, "/api/admin/locations/nope", tok, update); rec.Code != http.StatusNotFound {
		t.Errorf("update missing status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	if rec := env.do(t, http.MethodDelete, "/api/admin/locations/"+id, tok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := env.do(t, http.MethodDelete, "/api/admin/locations/"+id, tok, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := env.do(t, http.MethodGet, "/api/locations/"+id, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAdminSweepAndArchive(t *testing.T) {
	env := newTestEnv(t)
	tok := env.makeAdmin(t, "staff")
	env.addLocation(t, cisternYard)
	env.addLocation(t, convocation)
	breakfastID := env.addLocation(t, breakfast)

	rec := env.do(t, http.MethodPost, "/api/admin/sweep", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[SweepResponse](t, rec); got.Moved != 1 {
		t.Errorf("moved = %d, want 1", got.Moved)
	}

	// A second sweep finds nothing left to move.
	rec = env.do(t, http.MethodPost, "/api/admin/sweep", tok, nil)
	if got := decode[SweepResponse](t, rec); got.Moved != 0 {
		t.Errorf("second sweep moved = %d, want 0", got.Moved)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/expired", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expired status = %d", rec.Code)
	}
	archive := decode[[]ExpiredLocation](t, rec)
	if len(archive) != 1 {
		t.Fatalf("archive = %+v, want one entry", archive)
	}
	if archive[0].ID != breakfastID || archive[0].Title != "Breakfast" || archive[0].ExpiredAt == "" {
		t.Errorf("archive entry = %+v", archive[0])
	}
}

// stuckDelete refuses to delete one live location.
type stuckDelete struct {
	hunt.ArchiveStore
	id string
}

func (s *stuckDelete) Delete(ctx context.Context, collection, id string) error {
	if collection == hunt.CollectionLocations && id == s.id {
		return errors.New("disk I/O error")
	}
	return s.ArchiveStore.Delete(ctx, collection, id)
}

func TestAdminSweepPartialFailure(t *testing.T) {
	stuck := &stuckDelete{}
	env := newTestEnv(t, func(d *Deps) {
		stuck.ArchiveStore = d.Store
		d.Sweeper = hunt.NewSweeper(stuck, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, d.Now)
	})
	tok := env.makeAdmin(t, "staff")
	env.addLocation(t, breakfast)
	stuck.id = env.addLocation(t, hunt.Location{
		Title: "Brunch", Latitude: 32.7838, Longitude: -79.9372,
		IsEvent: true, StartTime: "2025-01-01T08:30:00", Duration: 30,
	})

	rec := env.do(t, http.MethodPost, "/api/admin/sweep", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[SweepResponse](t, rec); got != (SweepResponse{Moved: 1, Failed: 1}) {
		t.Errorf("sweep = %+v, want 1 moved and 1 failed", got)
	}

	var l hunt.Location
	if err := env.store.Get(context.Background(), hunt.CollectionLocations, stuck.id, &l); err != nil {
		t.Errorf("stuck location gone: %v", err)
	}
	docs, err := env.store.List(context.Background(), hunt.CollectionExpired, docstore.Query{})
	if err != nil {
		t.Fatal(err)
	}
	// The stuck location was archived before its delete failed.
	if len(docs) != 2 {
		t.Errorf("archive has %d entries, want 2", len(docs))
	}
}

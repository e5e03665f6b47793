package hunt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cofc/campushunt/internal/docstore"
)

// ArchiveStore is the slice of the document store the sweeper writes to.
type ArchiveStore interface {
	Create(ctx context.Context, collection string, doc any) (string, error)
	Delete(ctx context.Context, collection, id string) error
}

// archivedLocation is the shape kept in the expiredLocations collection.
type archivedLocation struct {
	ID string `json:"id"`
	Location
	ExpiredAt string `json:"expiredAt"`
}

// Sweeper moves expired event locations from the live collection into the
// archive. The archive is an append-only log: sweeping the same location
// twice leaves two entries.
type Sweeper struct {
	store    ArchiveStore
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

func NewSweeper(store ArchiveStore, logger *slog.Logger, recorder Recorder, now func() time.Time) *Sweeper {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: store, logger: logger, recorder: recorder, now: now}
}

// Sweep archives loc with an expiredAt stamp, then deletes it from the live
// collection. Callers only pass locations Classify reported as expired. A
// live document that is already gone counts as success.
func (s *Sweeper) Sweep(ctx context.Context, loc Location) error {
	rec := archivedLocation{
		ID:        loc.ID,
		Location:  loc,
		ExpiredAt: s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	if _, err := s.store.Create(ctx, CollectionExpired, rec); err != nil {
		s.recorder.RecordSweep(false)
		s.logger.Error("archiving expired location failed", "location_id", loc.ID, "title", loc.Title, "error", err)
		return transient("archiving location "+loc.ID, err)
	}

	if err := s.store.Delete(ctx, CollectionLocations, loc.ID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.logger.Debug("expired location already removed", "location_id", loc.ID)
			s.recorder.RecordSweep(true)
			return nil
		}
		s.recorder.RecordSweep(false)
		s.logger.Error("removing expired location failed", "location_id", loc.ID, "title", loc.Title, "error", err)
		return transient("removing location "+loc.ID, err)
	}

	s.recorder.RecordSweep(true)
	s.logger.Info("moved expired location", "location_id", loc.ID, "title", loc.Title)
	return nil
}

// SweepResult counts the outcome of one sweep over a snapshot.
type SweepResult struct {
	Moved  int `json:"moved"`
	Failed int `json:"failed"`
}

// SweepExpired classifies every location at the sweeper's current time and
// sweeps the expired ones. Failures are counted and joined into err; the
// remaining locations are still swept.
func (s *Sweeper) SweepExpired(ctx context.Context, locs []Location) (SweepResult, error) {
	now := s.now()
	var res SweepResult
	var errs []error
	for _, l := range locs {
		st, ok := ClassifyLocation(l, now)
		if !ok || !st.Expired() {
			continue
		}
		if err := s.Sweep(ctx, l); err != nil {
			res.Failed++
			errs = append(errs, err)
			continue
		}
		res.Moved++
	}
	return res, errors.Join(errs...)
}

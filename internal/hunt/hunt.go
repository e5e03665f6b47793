// Package hunt holds the event-lifetime and proximity-badge rules of the
// campus scavenger hunt: great-circle distance, event time states, the
// expiration sweep, and badge awards.
package hunt

import (
	"context"
	"errors"
	"fmt"

	"github.com/cofc/campushunt/internal/docstore"
)

const (
	CollectionLocations = "locations"
	CollectionExpired   = "expiredLocations"
	CollectionUsers     = "users"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrTransientIO      = errors.New("transient i/o failure")
	ErrInvalidInput     = errors.New("invalid input")
)

// transient tags a store failure so callers can tell it is safe to retry.
func transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientIO, err)
}

// Location is an event or a permanent point of interest.
type Location struct {
	ID          string  `json:"-"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	IsEvent     bool    `json:"isEvent,omitempty"`
	// StartTime is naive local wall-clock, e.g. "2025-01-01T10:00:00".
	StartTime string `json:"startTime,omitempty"`
	// Duration in minutes.
	Duration int `json:"duration,omitempty"`
}

func (l Location) Position() Position {
	return Position{Lat: l.Latitude, Lon: l.Longitude}
}

// BadgeName is the badge a location grants.
func (l Location) BadgeName() string { return l.Title }

type User struct {
	ID        string   `json:"-"`
	Email     string   `json:"email"`
	Badges    []string `json:"badges"`
	CreatedAt string   `json:"createdAt"`
}

func (u User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b == name {
			return true
		}
	}
	return false
}

type Position struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Identity is an authenticated user as reported by the identity provider.
type Identity struct {
	UserID string
	Email  string
}

type IdentityProvider interface {
	// CurrentIdentity reports the signed-in user, if any.
	CurrentIdentity(ctx context.Context) (Identity, bool)
}

// DecodeLocations turns location documents into Locations. Undecodable
// documents are skipped and reported in the joined error.
func DecodeLocations(docs []docstore.Document) ([]Location, error) {
	locs := make([]Location, 0, len(docs))
	var errs []error
	for _, d := range docs {
		var l Location
		if err := d.Decode(&l); err != nil {
			errs = append(errs, err)
			continue
		}
		l.ID = d.ID
		locs = append(locs, l)
	}
	return locs, errors.Join(errs...)
}

// LoadLocations lists every live location.
func LoadLocations(ctx context.Context, store Lister) ([]Location, error) {
	docs, err := store.List(ctx, CollectionLocations, docstore.Query{})
	if err != nil {
		return nil, transient("listing locations", err)
	}
	return DecodeLocations(docs)
}

type Lister interface {
	List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error)
}

package hunt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cofc/campushunt/internal/docstore"
)

type OutcomeKind int

const (
	Awarded OutcomeKind = iota + 1
	AlreadyHeld
	NotLoggedIn
	TooFar
)

func (k OutcomeKind) String() string {
	switch k {
	case Awarded:
		return "awarded"
	case AlreadyHeld:
		return "already_held"
	case NotLoggedIn:
		return "not_logged_in"
	case TooFar:
		return "too_far"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the result of one claim attempt. Distance is zero when the
// attempt stopped before measuring.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	Badge          string      `json:"badge,omitempty"`
	DistanceMeters float64     `json:"distanceMeters"`
}

// Message is the text shown to the player.
func (o Outcome) Message() string {
	switch o.Kind {
	case Awarded:
		return fmt.Sprintf("Earned %s Badge!", o.Badge)
	case AlreadyHeld:
		return fmt.Sprintf("Already have %s Badge!", o.Badge)
	case NotLoggedIn:
		return "You need to be logged in to claim badges."
	case TooFar:
		return fmt.Sprintf("Too far from %s to claim its badge (%.0fm away).", o.Badge, o.DistanceMeters)
	}
	return ""
}

// UserStore is the slice of the document store the award engine needs.
type UserStore interface {
	Get(ctx context.Context, collection, id string, dest any) error
	SetIfAbsent(ctx context.Context, collection, id string, doc any) (bool, error)
	ArrayUnion(ctx context.Context, collection, id, field string, value any) error
}

// Awarder grants location badges to users standing close enough.
//
// Within one TryAward the user document is read before any write. Calls for
// the same user are not serialized: the badge write is a set union, so the
// stored badges converge, but under concurrent calls the returned kind
// (Awarded or AlreadyHeld) may not match which call actually wrote.
type Awarder struct {
	store    UserStore
	identity IdentityProvider
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

func NewAwarder(store UserStore, identity IdentityProvider, logger *slog.Logger, recorder Recorder, now func() time.Time) *Awarder {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &Awarder{store: store, identity: identity, logger: logger, recorder: recorder, now: now}
}

// TryAward checks the signed-in user's position against loc and adds the
// location's badge when within EligibilityRadiusMeters. The user document
// is created on first use. Errors leave stored state unchanged.
func (a *Awarder) TryAward(ctx context.Context, at Position, loc Location) (Outcome, error) {
	who, ok := a.Claimant(ctx)
	if !ok {
		return Outcome{Kind: NotLoggedIn}, nil
	}

	user, err := a.loadOrCreateUser(ctx, who)
	if err != nil {
		a.logger.Error("loading user for badge claim failed", "user_id", who.UserID, "error", err)
		return Outcome{}, err
	}

	badge := loc.BadgeName()
	dist := Distance(at, loc.Position())
	a.logger.Debug("badge claim attempt", "user_id", who.UserID, "badge", badge, "distance_m", dist)

	var out Outcome
	switch {
	case !withinRadius(dist):
		out = Outcome{Kind: TooFar, Badge: badge, DistanceMeters: dist}
	case user.HasBadge(badge):
		out = Outcome{Kind: AlreadyHeld, Badge: badge, DistanceMeters: dist}
	default:
		if err := a.store.ArrayUnion(ctx, CollectionUsers, who.UserID, "badges", badge); err != nil {
			a.logger.Error("awarding badge failed", "user_id", who.UserID, "badge", badge, "error", err)
			return Outcome{}, transient("awarding badge", err)
		}
		a.logger.Info("badge awarded", "user_id", who.UserID, "email", who.Email, "badge", badge)
		out = Outcome{Kind: Awarded, Badge: badge, DistanceMeters: dist}
	}

	a.recorder.RecordAward(out.Kind)
	return out, nil
}

// Claimant returns the signed-in caller. When there is none it records a
// NotLoggedIn attempt, so callers can stop before reading any document.
func (a *Awarder) Claimant(ctx context.Context) (Identity, bool) {
	who, ok := a.identity.CurrentIdentity(ctx)
	if !ok || who.UserID == "" {
		a.recorder.RecordAward(NotLoggedIn)
		return Identity{}, false
	}
	return who, true
}

func (a *Awarder) loadOrCreateUser(ctx context.Context, who Identity) (User, error) {
	var u User
	err := a.store.Get(ctx, CollectionUsers, who.UserID, &u)
	if err == nil {
		u.ID = who.UserID
		return u, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return User{}, transient("loading user", err)
	}

	u = User{
		ID:        who.UserID,
		Email:     who.Email,
		Badges:    []string{},
		CreatedAt: a.now().UTC().Format(time.RFC3339Nano),
	}
	created, err := a.store.SetIfAbsent(ctx, CollectionUsers, who.UserID, u)
	if err != nil {
		return User{}, transient("creating user", err)
	}
	if created {
		a.logger.Info("created user document", "user_id", who.UserID)
		return u, nil
	}

	// Another request created it first.
	if err := a.store.Get(ctx, CollectionUsers, who.UserID, &u); err != nil {
		return User{}, transient("loading user", err)
	}
	u.ID = who.UserID
	return u, nil
}

// Profile returns the signed-in user's document, or ErrPermissionDenied
// when nobody is signed in, or ErrNotFound before the first claim.
func (a *Awarder) Profile(ctx context.Context) (User, error) {
	who, ok := a.identity.CurrentIdentity(ctx)
	if !ok || who.UserID == "" {
		return User{}, ErrPermissionDenied
	}
	var u User
	if err := a.store.Get(ctx, CollectionUsers, who.UserID, &u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, transient("loading user", err)
	}
	u.ID = who.UserID
	if u.Badges == nil {
		u.Badges = []string{}
	}
	return u, nil
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cofc/campushunt/internal/auth"
	"github.com/cofc/campushunt/internal/database"
	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

// testNow is 10:30 on the day of the test events.
var testNow = time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	store    *docstore.DocStore
	verifier *auth.Verifier
	handler  http.Handler
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := docstore.New(ctx, db)
	if err != nil {
		t.Fatalf("init doc store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return testNow }
	verifier := auth.NewVerifier("test-secret", "campushunt")

	deps := Deps{
		Store:           store,
		Awarder:         hunt.NewAwarder(store, auth.ContextProvider{}, logger, nil, now),
		Sweeper:         hunt.NewSweeper(store, logger, nil, now),
		Verifier:        verifier,
		ClaimsPerMinute: 100,
		Now:             now,
	}
	for _, o := range opts {
		o(&deps)
	}

	return &testEnv{
		store:    store,
		verifier: verifier,
		handler:  New(":0", logger, deps).Handler(),
	}
}

func (e *testEnv) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := e.verifier.Issue(uid, uid+"@cofc.edu", time.Hour)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return tok
}

func (e *testEnv) makeAdmin(t *testing.T, uid string) string {
	t.Helper()
	if err := e.store.Set(context.Background(), hunt.CollectionUsers, uid, map[string]any{
		"email": uid + "@cofc.edu", "badges": []string{}, "isAdmin": true,
	}); err != nil {
		t.Fatal(err)
	}
	return e.token(t, uid)
}

func (e *testEnv) addLocation(t *testing.T, loc hunt.Location) string {
	t.Helper()
	id, err := e.store.Create(context.Background(), hunt.CollectionLocations, loc)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

var (
	cisternYard = hunt.Location{
		Title:       "Cistern Yard",
		Description: "Iconic graduation venue surrounded by live oaks",
		Latitude:    32.783740,
		Longitude:   -79.937080,
	}
	convocation = hunt.Location{
		Title: "Convocation", Latitude: 32.7838, Longitude: -79.9372,
		IsEvent: true, StartTime: "2025-01-01T10:00:00", Duration: 60,
	}
	breakfast = hunt.Location{
		Title: "Breakfast", Latitude: 32.7838, Longitude: -79.9372,
		IsEvent: true, StartTime: "2025-01-01T08:00:00", Duration: 60,
	}
)

func TestAuthRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/me", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec := env.do(t, http.MethodGet, "/api/me", env.token(t, "fresh"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decode[ProfileResponse](t, rec)
	if got.ID != "fresh" || got.Email != "fresh@cofc.edu" || got.Badges == nil || len(got.Badges) != 0 {
		t.Errorf("profile = %+v", got)
	}
}

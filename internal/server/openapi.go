package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/cofc/campushunt/internal/hunt"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type locationPath struct {
	ID string `path:"id"`
}

type nearbyQuery struct {
	Lat float64 `query:"lat" required:"true"`
	Lon float64 `query:"lon" required:"true"`
}

type leaderboardQuery struct {
	Limit int `query:"limit" minimum:"1" maximum:"50" default:"10"`
}

type claimInput struct {
	locationPath
	ClaimRequest
}

type updateLocationInput struct {
	locationPath
	LocationRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Campus Hunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Event locations, proximity badges and the expiration sweep of the campus scavenger hunt.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the status of the database and the location watcher.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/locations
	listLocations, _ := r.NewOperationContext(http.MethodGet, "/api/locations")
	listLocations.SetSummary("List locations")
	listLocations.SetDescription("Live locations with event time states. Expired events are swept before responding.")
	listLocations.AddRespStructure([]hunt.FeedItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listLocations.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(listLocations)

	// GET /api/locations/stream
	stream, _ := r.NewOperationContext(http.MethodGet, "/api/locations/stream")
	stream.SetSummary("Location feed stream")
	stream.SetDescription("Server-Sent Events. Each snapshot event carries the full classified feed.")
	stream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(stream)

	// GET /api/locations/{id}
	getLocation, _ := r.NewOperationContext(http.MethodGet, "/api/locations/{id}")
	getLocation.SetSummary("Get location")
	getLocation.AddReqStructure(locationPath{})
	getLocation.AddRespStructure(hunt.FeedItem{}, openapi.WithHTTPStatus(http.StatusOK))
	getLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getLocation)

	// POST /api/locations/{id}/claim
	claim, _ := r.NewOperationContext(http.MethodPost, "/api/locations/{id}/claim")
	claim.SetSummary("Claim badge")
	claim.SetDescription("Awards the location's badge when the caller is within 50 m. Requires Bearer token.")
	claim.AddReqStructure(claimInput{})
	claim.AddRespStructure(ClaimResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	claim.AddRespStructure(ClaimResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	claim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	claim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	claim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	claim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(claim)

	// GET /api/nearby
	nearby, _ := r.NewOperationContext(http.MethodGet, "/api/nearby")
	nearby.SetSummary("Nearby locations")
	nearby.SetDescription("IDs of locations within claiming range of the given point, closest first.")
	nearby.AddReqStructure(nearbyQuery{})
	nearby.AddRespStructure(NearbyResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	nearby.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(nearby)

	// GET /api/leaderboard
	board, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	board.SetSummary("Top explorers")
	board.SetDescription("Users ranked by how many badges they hold.")
	board.AddReqStructure(leaderboardQuery{})
	board.AddRespStructure([]Explorer{}, openapi.WithHTTPStatus(http.StatusOK))
	board.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(board)

	// GET /api/me
	me, _ := r.NewOperationContext(http.MethodGet, "/api/me")
	me.SetSummary("Current user")
	me.SetDescription("The caller's badges. Requires Bearer token.")
	me.AddRespStructure(ProfileResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	me.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(me)

	// POST /api/admin/locations
	createLocation, _ := r.NewOperationContext(http.MethodPost, "/api/admin/locations")
	createLocation.SetSummary("Create location")
	createLocation.SetDescription("Creates a landmark or event. Requires an admin user.")
	createLocation.AddReqStructure(LocationRequest{})
	createLocation.AddRespStructure(hunt.FeedItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(createLocation)

	// PUT /api/admin/locations/{id}
	updateLocation, _ := r.NewOperationContext(http.MethodPut, "/api/admin/locations/{id}")
	updateLocation.SetSummary("Replace location")
	updateLocation.SetDescription("Replaces a location. Requires an admin user.")
	updateLocation.AddReqStructure(updateLocationInput{})
	updateLocation.AddRespStructure(hunt.FeedItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(updateLocation)

	// DELETE /api/admin/locations/{id}
	deleteLocation, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/locations/{id}")
	deleteLocation.SetSummary("Delete location")
	deleteLocation.SetDescription("Deletes a location without archiving it. Requires an admin user.")
	deleteLocation.AddReqStructure(locationPath{})
	deleteLocation.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(deleteLocation)

	// POST /api/admin/sweep
	sweep, _ := r.NewOperationContext(http.MethodPost, "/api/admin/sweep")
	sweep.SetSummary("Sweep expired events")
	sweep.SetDescription("Archives every expired event now and counts the moves that failed. Requires an admin user.")
	sweep.AddRespStructure(SweepResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	sweep.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	sweep.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(sweep)

	// GET /api/admin/expired
	expired, _ := r.NewOperationContext(http.MethodGet, "/api/admin/expired")
	expired.SetSummary("List archived events")
	expired.SetDescription("Archive entries, newest first. Requires an admin user.")
	expired.AddRespStructure([]ExpiredLocation{}, openapi.WithHTTPStatus(http.StatusOK))
	expired.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(expired)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

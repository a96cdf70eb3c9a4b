// README: End-to-end HTTP tests over the in-memory document store.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/docstore"
	httptransport "github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/http"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/infra"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/matching"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/trip"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/user"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/observability"
)

// tokenVerifier maps bearer tokens straight to uids.
type tokenVerifier map[string]string

func (v tokenVerifier) VerifyIDToken(_ context.Context, token string) (*infra.FirebaseToken, error) {
	uid, ok := v[token]
	if !ok {
		return nil, infra.ErrTokenInvalid
	}
	return &infra.FirebaseToken{UID: uid, Email: uid + "@example.com"}, nil
}

type testServer struct {
	handler http.Handler
	docs    *docstore.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	docs := docstore.NewMemoryStore()
	ctx := context.Background()
	for uid, data := range map[string]map[string]any{
		"driver-uid":    {"user_id": "d1", "phone": "+57 301 111 1111", "my_trips": []any{}},
		"passenger-uid": {"user_id": "p1", "phone": "+57 302 222 2222", "my_trips": []any{}},
	} {
		if err := docs.Set(ctx, "users", uid, data); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	tripStore := trip.NewStore(docs)
	tripSvc := trip.NewService(tripStore, trip.Deps{
		Metrics: metrics,
		Now:     func() time.Time { return time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC) },
	})

	srv := httptransport.NewServer(httptransport.ServerDeps{
		Trips:       tripSvc,
		Matching:    matching.NewService(tripStore, -300, nil, metrics),
		Users:       user.NewService(user.NewStore(docs), nil),
		Verifier:    tokenVerifier{"driver-token": "driver-uid", "passenger-token": "passenger-uid"},
		Logger:      logger.NewNop(),
		Metrics:     metrics,
		Gatherer:    reg,
		CORSOrigins: []string{"*"},
	})
	return &testServer{handler: srv.Routes(), docs: docs}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code, out
}

func tripsOf(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["trips"].([]any)
	if !ok {
		t.Fatalf("trips missing from %v", body)
	}
	out := make([]map[string]any, len(raw))
	for i, r := range raw {
		out[i] = r.(map[string]any)
	}
	return out
}

var postBody = map[string]any{
	"start": map[string]any{
		"address":     "Portal Norte",
		"coordinates": map[string]any{"lat": 4.7545, "lng": -74.0463},
	},
	"destination": map[string]any{
		"address":     "Universidad de La Sabana",
		"coordinates": map[string]any{"lat": "4.8615", "lng": "-74.0324"},
	},
	"time":          "2025-03-10T07:00",
	"seats":         "1",
	"fare":          6000,
	"extra_minutes": 10,
	"vehicle":       map[string]any{"license_plate": "ABC123", "capacity": 4},
}

// ---------------------------------------------------------------------------
// Scenario
// ---------------------------------------------------------------------------

func TestTripLifecycle(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/trips", "driver-token", postBody)
	if code != http.StatusCreated || body["message"] != "Posted trip" {
		t.Fatalf("create: %d %v", code, body)
	}
	tripID, _ := body["trip_id"].(string)
	if tripID == "" {
		t.Fatal("missing trip_id")
	}

	// search from a point on the route
	code, body = s.do(t, http.MethodGet,
		"/api/trips?search=true&fromLat=4.808&fromLng=-74.03935&toLat=4.8615&toLng=-74.0324&date=2025-03-10&time=07:10",
		"passenger-token", nil)
	if code != http.StatusOK {
		t.Fatalf("search: %d %v", code, body)
	}
	found := tripsOf(t, body)
	if len(found) != 1 || found[0]["trip_id"] != tripID {
		t.Fatalf("search results = %v", found)
	}
	if _, ok := found[0]["estimated_minutes_detour"]; !ok {
		t.Error("match should carry estimated_minutes_detour")
	}
	if _, ok := body["debug"]; ok {
		t.Error("debug trace returned without debug=true")
	}

	// the driver does not find their own trip unless previewing as driver
	_, body = s.do(t, http.MethodGet,
		"/api/trips?search=true&fromLat=4.808&fromLng=-74.03935&toLat=4.8615&toLng=-74.0324&debug=true",
		"driver-token", nil)
	if len(tripsOf(t, body)) != 0 {
		t.Error("driver should not match own trip")
	}
	if dbg, _ := body["debug"].([]any); len(dbg) != 1 {
		t.Errorf("debug = %v", body["debug"])
	}

	apply := map[string]any{"trip_id": tripID, "user_id": "p1"}
	code, body = s.do(t, http.MethodPatch, "/api/trips", "passenger-token", apply)
	if code != http.StatusOK || body["message"] != "User added to waitlist" {
		t.Fatalf("apply: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPatch, "/api/trips", "passenger-token", apply)
	if code != http.StatusBadRequest || body["error"] != "User already in waitlist" {
		t.Fatalf("duplicate apply: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPatch, "/api/trips", "driver-token", map[string]any{"trip_id": tripID, "user_id": "d1"})
	if code != http.StatusBadRequest || body["error"] != "You cannot apply to your own trip" {
		t.Fatalf("self apply: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/trips?role=passenger", "passenger-token", nil)
	if code != http.StatusOK || len(tripsOf(t, body)) != 1 {
		t.Fatalf("passenger listing: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPatch, "/api/trips", "passenger-token", map[string]any{"trip_id": tripID, "action": "accept", "user_id": "p1"})
	if code != http.StatusForbidden {
		t.Fatalf("accept by passenger: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPatch, "/api/trips", "driver-token", map[string]any{"trip_id": tripID, "action": "ACCEPT", "user_id": "p1"})
	if code != http.StatusOK || body["status"] != "closed" {
		t.Fatalf("accept: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPatch, "/api/trips", "driver-token", map[string]any{"trip_id": tripID, "action": "remove_passenger", "user_id": "p1"})
	if code != http.StatusOK || body["removed_from_passenger_list"] != true || body["status"] != "open" {
		t.Fatalf("remove: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPatch, "/api/trips", "driver-token", map[string]any{"trip_id": tripID, "action": "cancel"})
	if code != http.StatusOK || body["message"] != "Trip cancelled successfully" || body["status"] != "cancelled" {
		t.Fatalf("cancel: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/trips", "driver-token", nil)
	if code != http.StatusOK {
		t.Fatalf("driver listing: %d", code)
	}
	mine := tripsOf(t, body)
	if len(mine) != 1 || mine[0]["status"] != "cancelled" {
		t.Errorf("driver listing = %v", mine)
	}

	code, body = s.do(t, http.MethodGet, "/api/trips?ids="+tripID+",missing", "passenger-token", nil)
	if code != http.StatusOK || len(tripsOf(t, body)) != 1 {
		t.Errorf("ids listing: %d %v", code, body)
	}

	doc, err := s.docs.Get(context.Background(), "users", "passenger-uid")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	myTrips, _ := doc.Data["my_trips"].([]any)
	if len(myTrips) != 1 {
		t.Fatalf("my_trips = %v", myTrips)
	}
	if m := myTrips[0].(map[string]any); m["status"] != "cancelled" || m["cancelledBy"] != "driver" {
		t.Errorf("mirror = %v", m)
	}
}

// ---------------------------------------------------------------------------
// Request validation and routing
// ---------------------------------------------------------------------------

func TestCreateTrip_Validation(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		body any
		want string
	}{
		{"empty body", nil, "start.address is required"},
		{"bad seats", map[string]any{
			"start": map[string]any{"address": "A"}, "destination": map[string]any{"address": "B"},
			"time": "2025-03-10T07:00", "seats": "many", "fare": 1,
		}, "seats must be a positive number"},
		{"negative extra minutes", map[string]any{
			"start": map[string]any{"address": "A"}, "destination": map[string]any{"address": "B"},
			"time": "2025-03-10T07:00", "seats": 2, "fare": 1, "extra_minutes": -3,
		}, "extra_minutes must be zero or a positive number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := s.do(t, http.MethodPost, "/api/trips", "driver-token", tc.body)
			if code != http.StatusBadRequest || body["error"] != tc.want {
				t.Errorf("got %d %v, want 400 %q", code, body, tc.want)
			}
		})
	}
}

func TestPatch_Errors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{"missing trip_id", map[string]any{"user_id": "p1"}, http.StatusBadRequest, "trip_id is required"},
		{"unknown trip", map[string]any{"trip_id": "nope", "user_id": "p1"}, http.StatusNotFound, "Trip not found"},
		{"unknown action applies", map[string]any{"trip_id": "nope", "action": "teleport", "user_id": "p1"}, http.StatusNotFound, "Trip not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := s.do(t, http.MethodPatch, "/api/trips", "passenger-token", tc.body)
			if code != tc.wantStatus || body["error"] != tc.wantError {
				t.Errorf("got %d %v", code, body)
			}
		})
	}
}

func TestSearch_RequiresCoordinates(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/api/trips?search=true&fromLat=4.7&fromLng=abc&toLat=4.8&toLng=-74", "passenger-token", nil)
	if code != http.StatusBadRequest || body["error"] != "fromLat, fromLng, toLat and toLng are required for search" {
		t.Errorf("got %d %v", code, body)
	}
}

func TestRouting(t *testing.T) {
	s := newTestServer(t)

	if code, body := s.do(t, http.MethodGet, "/api/trips", "", nil); code != http.StatusUnauthorized || body["error"] != "Authorization token required" {
		t.Errorf("unauthenticated: %d %v", code, body)
	}
	if code, body := s.do(t, http.MethodGet, "/api/trips", "forged", nil); code != http.StatusUnauthorized || body["error"] != "Invalid token" {
		t.Errorf("forged token: %d %v", code, body)
	}
	if code, body := s.do(t, http.MethodDelete, "/api/trips", "driver-token", nil); code != http.StatusMethodNotAllowed || body["error"] != "Method not allowed" {
		t.Errorf("delete: %d %v", code, body)
	}
	if code, _ := s.do(t, http.MethodOptions, "/api/trips", "", nil); code != http.StatusOK {
		t.Errorf("preflight: %d", code)
	}
	if code, body := s.do(t, http.MethodGet, "/health", "", nil); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health: %d %v", code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "trips_http_requests_total") {
		t.Errorf("metrics endpoint: %d", w.Code)
	}
}

func TestUserPhone(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/users/phone?user_id=d1", "passenger-token", nil)
	if code != http.StatusOK || body["phone"] != "+57 301 111 1111" {
		t.Errorf("by user_id: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodGet, "/api/users/phone", "passenger-token", nil)
	if code != http.StatusBadRequest || body["error"] != "firebase_uid or user_id is required" {
		t.Errorf("no params: %d %v", code, body)
	}
	code, _ = s.do(t, http.MethodGet, "/api/users/phone?firebase_uid=ghost", "passenger-token", nil)
	if code != http.StatusNotFound {
		t.Errorf("unknown uid: %d", code)
	}
}

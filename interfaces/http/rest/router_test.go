package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"focuslink/application/ports"
	"focuslink/application/services"
	"focuslink/domain/config"
	"focuslink/domain/synergy"
	"focuslink/infrastructure/messaging/local"
	"focuslink/infrastructure/persistence/memory"
	"focuslink/pkg/auth"
	"focuslink/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "router-test-secret"
	testIssuer = "focuslink-test"
)

type apiFixture struct {
	handler   http.Handler
	generator *auth.JWTGenerator
	collector *observability.Collector
}

func newAPIFixture(t *testing.T, limiter *auth.KeyedLimiter) *apiFixture {
	t.Helper()

	cfg := config.DefaultDomainConfig()
	logger := zap.NewNop()
	profiles := memory.NewProfileRepository()
	connections := memory.NewConnectionRepository()
	groups := memory.NewGroupRepository()
	messages := memory.NewMessageRepository()
	publisher := local.NewPublisher(logger)
	matchers := ports.StaticMatcher(synergy.NewMatcher(nil, synergy.WithLimit(50)))
	collector := observability.NewCollector("focuslink")

	svc := Services{
		Goals:       services.NewGoalService(profiles, publisher, cfg, logger),
		Matches:     services.NewMatchService(profiles, connections, matchers, collector, cfg, logger),
		Connections: services.NewConnectionService(connections, profiles, messages, publisher, collector, logger),
		Groups:      services.NewGroupService(groups, connections, messages, publisher, cfg, logger),
		Messages:    services.NewMessageService(messages, connections, groups, publisher, collector, cfg, logger),
		Nearby:      services.NewNearbyService(profiles, connections, matchers, cfg, logger),
	}

	validator, err := auth.NewJWTValidator(testSecret, testIssuer)
	require.NoError(t, err)

	router := NewRouter(svc, validator, limiter, collector, nil, []string{"*"}, logger)
	return &apiFixture{
		handler:   router.Setup(),
		generator: auth.NewJWTGenerator(testSecret, testIssuer, time.Hour),
		collector: collector,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, uid string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		token, err := f.generator.GenerateToken(uid, uid+"@example.com")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestRouter_Health(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_Readiness(t *testing.T) {
	f := newAPIFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	router := NewRouter(Services{}, nil, nil, nil, nil, nil, nil).
		WithReadinessCheck(func(context.Context) error { return errors.New("table missing") })
	rec = httptest.NewRecorder()
	router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			f.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]interface{}
			decodeBody(t, rec, &body)
			assert.Equal(t, "UNAUTHORIZED", body["type"])
		})
	}
}

func TestRouter_RejectsTokenFromOtherIssuer(t *testing.T) {
	f := newAPIFixture(t, nil)
	token, err := auth.NewJWTGenerator(testSecret, "someone-else", time.Hour).GenerateToken("alice", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ProfileAndGoals(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/profile", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/profile", "alice", map[string]interface{}{"name": "Alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/goals", "alice", map[string]interface{}{"text": "Learn pottery and woodworking"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var goal struct {
		ID       string `json:"id"`
		IsActive bool   `json:"isActive"`
	}
	decodeBody(t, rec, &goal)
	assert.NotEmpty(t, goal.ID)
	assert.True(t, goal.IsActive)

	rec = f.do(t, http.MethodGet, "/api/v1/keywords", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"keywords":["pottery","woodworking"]}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/goals/"+goal.ID+"/spotlight", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/v1/goals/"+goal.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/goals/"+goal.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ValidationErrors(t *testing.T) {
	f := newAPIFixture(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{name: "goal without text", method: http.MethodPost, path: "/api/v1/goals", body: map[string]interface{}{}},
		{name: "unknown field", method: http.MethodPost, path: "/api/v1/goals", body: map[string]interface{}{"text": "x", "color": "red"}},
		{name: "location out of range", method: http.MethodPut, path: "/api/v1/profile/location", body: map[string]interface{}{"lat": 91, "lng": 0}},
		{name: "location missing lng", method: http.MethodPut, path: "/api/v1/profile/location", body: map[string]interface{}{"lat": 10}},
		{name: "bad connection status", method: http.MethodGet, path: "/api/v1/connections?status=blocked"},
		{name: "empty search", method: http.MethodGet, path: "/api/v1/matches/search?q=%20"},
		{name: "nearby lat without lng", method: http.MethodGet, path: "/api/v1/nearby?lat=10"},
		{name: "bad message limit", method: http.MethodGet, path: "/api/v1/connections/a_b/messages?limit=lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, "alice", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			var body map[string]interface{}
			decodeBody(t, rec, &body)
			assert.Equal(t, "VALIDATION", body["type"])
		})
	}
}

func TestRouter_MatchesAndConnections(t *testing.T) {
	f := newAPIFixture(t, nil)
	for uid, goal := range map[string]string{
		"alice": "Learn pottery and woodworking",
		"bob":   "Pottery classes",
		"carol": "Ship a mobile app",
	} {
		rec := f.do(t, http.MethodPut, "/api/v1/profile", uid, map[string]interface{}{"name": uid})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = f.do(t, http.MethodPost, "/api/v1/goals", uid, map[string]interface{}{"text": goal})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/api/v1/matches", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches struct {
		Matches []services.MatchResult `json:"matches"`
		Count   int                    `json:"count"`
	}
	decodeBody(t, rec, &matches)
	require.Equal(t, 1, matches.Count)
	assert.Equal(t, "bob", matches.Matches[0].UserID)
	assert.Equal(t, 33, matches.Matches[0].Score)
	assert.Equal(t, []string{"pottery"}, matches.Matches[0].Shared)

	rec = f.do(t, http.MethodPost, "/api/v1/connections", "alice", map[string]interface{}{"userId": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var conn struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, rec, &conn)
	assert.Equal(t, "pending", conn.Status)

	rec = f.do(t, http.MethodPost, "/api/v1/connections", "alice", map[string]interface{}{"userId": "bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/connections/status/bob", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"pending","connectionId":"`+conn.ID+`"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/connections/"+conn.ID+"/accept", "carol", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/connections/"+conn.ID+"/accept", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/matches", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &matches)
	assert.Zero(t, matches.Count)

	rec = f.do(t, http.MethodPost, "/api/v1/connections/"+conn.ID+"/messages", "alice", map[string]interface{}{"text": "Wheel night on Friday?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/connections?status=accepted", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Connections []struct {
			ID     string `json:"id"`
			Unread int    `json:"unreadCount"`
		} `json:"connections"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Connections, 1)
	assert.Equal(t, 1, list.Connections[0].Unread)

	rec = f.do(t, http.MethodGet, "/api/v1/connections/"+conn.ID+"/messages", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &msgs)
	assert.Equal(t, 1, msgs.Count)

	rec = f.do(t, http.MethodPost, "/api/v1/connections/"+conn.ID+"/read", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marked":1}`, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/v1/threads/"+conn.ID+"/messages", "bob", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/connections/"+conn.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/connections/status/bob", "alice", nil)
	assert.JSONEq(t, `{"state":"none"}`, rec.Body.String())
}

func TestRouter_Groups(t *testing.T) {
	f := newAPIFixture(t, nil)
	for _, uid := range []string{"alice", "bob"} {
		rec := f.do(t, http.MethodPut, "/api/v1/profile", uid, map[string]interface{}{"name": uid})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/api/v1/connections", "alice", map[string]interface{}{"userId": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var conn struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &conn)
	rec = f.do(t, http.MethodPost, "/api/v1/connections/"+conn.ID+"/accept", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/groups", "alice", map[string]interface{}{
		"name":      "Clay club",
		"memberIds": []string{"bob"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var group struct {
		ID      string `json:"id"`
		Members []struct {
			UserID string `json:"userId"`
			Role   string `json:"role"`
		} `json:"members"`
	}
	decodeBody(t, rec, &group)
	require.Len(t, group.Members, 2)

	rec = f.do(t, http.MethodPut, "/api/v1/groups/"+group.ID, "bob", map[string]interface{}{"name": "Bob's club"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/groups/"+group.ID+"/messages", "bob", map[string]interface{}{"text": "hello clay people"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/groups", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups struct {
		Groups []struct {
			ID      string `json:"id"`
			Unread  int    `json:"unreadCount"`
			IsAdmin bool   `json:"isAdmin"`
		} `json:"groups"`
	}
	decodeBody(t, rec, &groups)
	require.Len(t, groups.Groups, 1)
	assert.Equal(t, 1, groups.Groups[0].Unread)
	assert.True(t, groups.Groups[0].IsAdmin)

	rec = f.do(t, http.MethodDelete, "/api/v1/threads/"+group.ID+"/messages", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/groups/"+group.ID+"/leave", "bob", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/groups/"+group.ID+"/messages", "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Nearby(t *testing.T) {
	f := newAPIFixture(t, nil)
	share := true
	users := []struct {
		uid      string
		goal     string
		lat, lng float64
	}{
		{uid: "alice", goal: "Marathon training", lat: 40.7128, lng: -74.0060},
		{uid: "bob", goal: "Marathon training plan", lat: 40.7306, lng: -73.9352},
		{uid: "carol", goal: "Marathon running", lat: 34.0522, lng: -118.2437},
	}
	for _, u := range users {
		rec := f.do(t, http.MethodPut, "/api/v1/profile", u.uid, map[string]interface{}{"name": u.uid, "shareLocation": share})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = f.do(t, http.MethodPut, "/api/v1/profile/location", u.uid, map[string]interface{}{"lat": u.lat, "lng": u.lng})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = f.do(t, http.MethodPost, "/api/v1/goals", u.uid, map[string]interface{}{"text": u.goal})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/api/v1/nearby?radius=50", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var nearby struct {
		Users []struct {
			UserID string `json:"userId"`
		} `json:"users"`
		Count int `json:"count"`
	}
	decodeBody(t, rec, &nearby)
	require.Equal(t, 1, nearby.Count)
	assert.Equal(t, "bob", nearby.Users[0].UserID)

	rec = f.do(t, http.MethodGet, "/api/v1/nearby?lat=34.05&lng=-118.24&radius=10", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &nearby)
	require.Equal(t, 1, nearby.Count)
	assert.Equal(t, "carol", nearby.Users[0].UserID)

	rec = f.do(t, http.MethodGet, "/api/v1/nearby/same-goal?text=marathon&doing=false", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &nearby)
	assert.Equal(t, 2, nearby.Count)
}

func TestRouter_RateLimit(t *testing.T) {
	f := newAPIFixture(t, auth.NewKeyedLimiter(0.01, 1))

	rec := f.do(t, http.MethodGet, "/api/v1/matches", "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/matches", "alice", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = f.do(t, http.MethodGet, "/api/v1/matches", "bob", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_NotFoundAndMetrics(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/matches", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `focuslink_http_requests_total{method="GET",route="/api/v1/matches",status="200"} 1`)
}

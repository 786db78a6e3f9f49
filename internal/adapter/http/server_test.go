package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/beach-status-etl/internal/adapter/http"
	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockState struct {
	snapshot domain.Snapshot
	history  []domain.HistoryEntry
	err      error
	asked    string
}

func (m *mockState) LoadSnapshot(_ context.Context) (domain.Snapshot, error) {
	return m.snapshot, m.err
}

func (m *mockState) History(_ context.Context, beach string) ([]domain.HistoryEntry, error) {
	m.asked = beach
	if m.err != nil {
		return nil, m.err
	}
	if beach == "" {
		return m.history, nil
	}
	var out []domain.HistoryEntry
	for _, e := range m.history {
		if e.BeachName == beach {
			out = append(out, e)
		}
	}
	return out, nil
}

func testState() *mockState {
	return &mockState{
		snapshot: domain.NewSnapshot([]domain.BeachStatusRecord{
			{BeachName: "North Beach", Status: domain.StatusGreen, Date: "Jun 10 2025 09:00AM", Note: "Open"},
			{
				BeachName: "Leddy Beach South", Status: domain.StatusYellow, Date: "Jun 10 2025 09:00AM", Note: "Alert Category 2",
				Coordinates: &domain.Coordinates{Lat: 44.5018, Lon: -73.2527},
			},
		}),
		history: []domain.HistoryEntry{
			{RecordedAt: time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC), BeachName: "Leddy Beach South", Status: domain.StatusGreen, Note: "Open"},
			{RecordedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), BeachName: "Leddy Beach South", Status: domain.StatusYellow, Note: "Alert Category 2"},
			{RecordedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), BeachName: "North Beach", Status: domain.StatusGreen, Note: "Open"},
		},
	}
}

func newTestServer(readyErr error, state *mockState) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, state, slog.Default())
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil, testState()), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil, testState()), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("no successful run yet"), testState()), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no successful run yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, testState()), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatusListsRecordsSortedByName(t *testing.T) {
	rec := get(t, newTestServer(nil, testState()), "/api/status")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []domain.BeachStatusRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Leddy Beach South", body[0].BeachName)
	assert.Equal(t, "North Beach", body[1].BeachName)
	assert.Nil(t, body[1].Coordinates)
}

func TestBeachStatus(t *testing.T) {
	srv := newTestServer(nil, testState())

	rec := get(t, srv, "/api/status/leddy%20beach%20south")
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.BeachStatusRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusYellow, body.Status)
	require.NotNil(t, body.Coordinates)
	assert.InDelta(t, 44.5018, body.Coordinates.Lat, 1e-9)

	rec = get(t, srv, "/api/status/Oakledge")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryFiltersByBeach(t *testing.T) {
	state := testState()
	srv := newTestServer(nil, state)

	rec := get(t, srv, "/api/history?beach=Leddy+Beach+South")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Leddy Beach South", state.asked)

	var body []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)

	rec = get(t, srv, "/api/history?beach=Nowhere")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPIStoreErrorReturns500(t *testing.T) {
	state := testState()
	state.err = errors.New("disk gone")
	srv := newTestServer(nil, state)

	assert.Equal(t, http.StatusInternalServerError, get(t, srv, "/api/status").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, srv, "/api/history").Code)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(nil, testState())
	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	rec := get(t, newTestServer(nil, testState()), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

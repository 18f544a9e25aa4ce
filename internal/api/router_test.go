package api

import (
	"context"
	"encoding/json"
	"milk-collection-service/internal/adapters/distance"
	"milk-collection-service/internal/adapters/repositories"
	"milk-collection-service/internal/api/dto"
	"milk-collection-service/internal/api/handlers"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"milk-collection-service/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type staticSource struct{ snap domain.Snapshot }

func (s staticSource) Snapshot(context.Context) (domain.Snapshot, error) { return s.snap, nil }

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Vendors: []domain.Vendor{
			{ID: "V1", Location: domain.Coordinates{Lat: 10.02, Lon: 78.01}, MilkLiters: 60},
			{ID: "V2", Location: domain.Coordinates{Lat: 10.04, Lon: 78.03}, MilkLiters: 30},
			{ID: "V3", Location: domain.Coordinates{Lat: 9.98, Lon: 78.02}, MilkLiters: 50},
		},
		Hubs: []domain.Hub{{ID: "H1", Location: domain.Coordinates{Lat: 10, Lon: 78}, CapacityLiters: 500}},
		Categories: []domain.VehicleCategory{
			{Name: "tanker", CapacityLiters: 100, Count: 2, FixedCost: 300, CostPerKm: 10, ServiceMinutesPerStop: 5},
		},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := distance.NewResilientProvider(distance.UnavailableBackend{}, geo.NewEstimator(40), time.Second)
	return NewRouter(&handlers.RunHandler{
		Optimizer:       services.NewOptimizer(provider, 2),
		ManualEvaluator: &services.ManualEvaluator{},
		Runs:            repositories.NewMemoryRunRepository(),
		Snapshots:       staticSource{snap: testSnapshot()},
		Defaults:        domain.RunConfig{DeadlineMinutes: 480, MaxDistanceKm: 100},
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCreateAndFetchRun(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/runs", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run domain.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.NotEmpty(t, run.ID)
	require.Equal(t, domain.TriggerMachine, run.Trigger)
	require.True(t, run.Degraded)

	rec = do(t, h, http.MethodGet, "/v1/runs/"+run.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/runs/"+run.ID+"/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m domain.RunMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Equal(t, run.ID, m.RunID)
	require.InDelta(t, run.TotalCost, m.TotalCost, 1e-9)

	rec = do(t, h, http.MethodGet, "/v1/runs?trigger=machine_generated", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ListRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)

	rec = do(t, h, http.MethodGet, "/v1/runs?trigger=manual_update", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Empty(t, list.Runs)
}

func TestCreateRunErrors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown field", `{"trucks":3}`, http.StatusBadRequest},
		{"bad deadline", `{"deadline_minutes":0}`, http.StatusBadRequest},
		{"empty snapshot", `{"snapshot":{"vendors":[],"hubs":[],"vehicle_categories":[]}}`, http.StatusBadRequest},
		{"bad coordinate", `{"snapshot":{
			"vendors":[{"id":"V1","location":{"latitude":95,"longitude":78},"milk_liters":10}],
			"hubs":[{"id":"H1","location":{"latitude":10,"longitude":78},"capacity_liters":100}],
			"vehicle_categories":[{"name":"t","capacity_liters":100,"count":1}]}}`, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/runs", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	rec := do(t, h, http.MethodGet, "/v1/runs?trigger=bogus", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/runs/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManualRunAndCompare(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/v1/runs/compare", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/runs", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	manual := `{"data":{"clusters":[{"hub_id":"H1","vehicles":[
		{"category":"tanker","stops":["V3","V2"]},
		{"category":"tanker","stops":["V1"]}
	]}]}}`
	rec = do(t, h, http.MethodPost, "/v1/runs/manual", manual)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res dto.ManualRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, domain.TriggerManual, res.Run.Trigger)
	require.NotNil(t, res.Comparison)
	require.Len(t, res.Run.Clusters[0].Vehicles, 2)
	require.Equal(t, []string{"V3", "V2"}, res.Run.Clusters[0].Vehicles[0].Stops)

	rec = do(t, h, http.MethodGet, "/v1/runs/compare", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cmp domain.RunComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	require.Equal(t, res.Run.ID, cmp.Current.RunID)

	rec = do(t, h, http.MethodGet, "/v1/runs/compare?previous="+res.Run.ID+"&current="+res.Run.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	require.Zero(t, cmp.CostSaved)
}

func TestManualRunErrors(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/runs/manual", `{"routes":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	over := `{"clusters":[{"hub_id":"H1","vehicles":[{"category":"tanker","stops":["V1","V3"]}]}]}`
	rec = do(t, h, http.MethodPost, "/v1/runs/manual", over)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// no machine run yet: the manual run is stored without a comparison
	ok := `{"clusters":[{"hub_id":"H1","vehicles":[{"category":"tanker","stops":["V1"]}]}]}`
	rec = do(t, h, http.MethodPost, "/v1/runs/manual", ok)
	require.Equal(t, http.StatusCreated, rec.Code)
	var res dto.ManualRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Nil(t, res.Comparison)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	h := newTestServer(t)
	body := strings.Repeat(" ", maxBodyBytes+1)

	for _, path := range []string{"/v1/runs", "/v1/runs/manual"} {
		rec := do(t, h, http.MethodPost, path, body)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("%s status = %d, want %d", path, rec.Code, http.StatusRequestEntityTooLarge)
		}
	}
}

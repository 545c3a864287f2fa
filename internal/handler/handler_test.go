package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/dashboard"
	"github.com/matthewbaird/portfolio/internal/store"
	"github.com/matthewbaird/portfolio/internal/types"
)

var ownerID = uuid.MustParse("a6e1f3d2-5b4c-4e8f-9a7b-0c1d2e3f4a5b")

// stubReporter records its inputs and returns canned results.
type stubReporter struct {
	err      error
	pingErr  error
	panicked bool
	owner    types.Ref
	asOf     time.Time
	calls    atomic.Int32
}

func (s *stubReporter) Dashboard(_ context.Context, owner types.Ref, asOf time.Time) (*dashboard.DashboardStats, error) {
	n := s.calls.Add(1)
	if s.panicked {
		panic("boom")
	}
	s.owner, s.asOf = owner, asOf
	if s.err != nil {
		return nil, s.err
	}
	return &dashboard.DashboardStats{AsOf: asOf, Properties: dashboard.PropertyStats{Total: int(n)}, Degraded: []string{}}, nil
}

func (s *stubReporter) Financials(_ context.Context, owner types.Ref, asOf time.Time) (*dashboard.FinancialStats, error) {
	s.owner, s.asOf = owner, asOf
	return &dashboard.FinancialStats{AsOf: asOf, Degraded: []string{}}, s.err
}

func (s *stubReporter) CurrentTenants(_ context.Context, owner types.Ref, asOf time.Time) (*dashboard.TenantList, error) {
	s.owner, s.asOf = owner, asOf
	return &dashboard.TenantList{AsOf: asOf, Degraded: []string{}}, s.err
}

func (s *stubReporter) Applications(_ context.Context, owner types.Ref) (*dashboard.ApplicationList, error) {
	s.owner = owner
	return &dashboard.ApplicationList{Degraded: []string{}}, s.err
}

func (s *stubReporter) Ping(context.Context) error { return s.pingErr }

func newRouter(rep Reporter, interval time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Logging(zap.NewNop()))
	r.Use(Recovery(zap.NewNop()))
	NewDashboardHandler(rep, interval).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestDashboard_MemoryStore(t *testing.T) {
	owner := types.NewRef(ownerID)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := store.NewMemoryStore(store.Snapshot{
		Properties: []types.Property{{ID: "p1", Address: "1 Elm St", Owner: owner}},
		Units: []types.Unit{
			{ID: "u1", PropertyID: "p1", MonthlyRent: types.AmountFromInt(1000), Occupied: true},
			{ID: "u2", PropertyID: "p1", MonthlyRent: types.AmountFromInt(900)},
		},
		Leases: []types.Lease{{ID: "l1", TenantID: "t1", UnitID: "u1", StartDate: &start, Status: types.LeaseStatusActive}},
	})
	h := newRouter(dashboard.NewService(st), 0)

	rec, body := do(t, h, "/v1/owners/"+ownerID.String()+"/dashboard?as_of=2024-06-20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "2024-06-20T00:00:00Z", body["asOf"])
	assert.Equal(t, float64(1), body["properties"].(map[string]any)["total"])
	units := body["units"].(map[string]any)
	assert.Equal(t, float64(2), units["total"])
	assert.Equal(t, float64(50), units["occupancyRate"])
	assert.Equal(t, "1000", units["totalRevenue"])
	assert.Equal(t, []any{}, body["degraded"])
}

func TestDashboard_UnknownOwnerIsEmpty(t *testing.T) {
	h := newRouter(dashboard.NewService(store.NewMemoryStore(store.Snapshot{})), 0)

	rec, body := do(t, h, "/v1/owners/nobody/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["properties"].(map[string]any)["total"])
}

func TestAsOfParsing(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  time.Time
	}{
		{"absent", "", time.Time{}},
		{"date", "?as_of=2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", "?as_of=2024-06-20T09:30:00%2B02:00", time.Date(2024, 6, 20, 7, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &stubReporter{}
			rec, _ := do(t, newRouter(rep, 0), "/v1/owners/"+ownerID.String()+"/financials"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, tt.want.Equal(rep.asOf), "got %v", rep.asOf)
			assert.Equal(t, ownerID.String(), rep.owner.String())
		})
	}
}

func TestInvalidAsOf(t *testing.T) {
	for _, path := range []string{"dashboard", "financials", "tenants"} {
		t.Run(path, func(t *testing.T) {
			rep := &stubReporter{}
			rec, body := do(t, newRouter(rep, 0), "/v1/owners/x/"+path+"?as_of=June")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_AS_OF", body["code"])
			assert.Zero(t, rep.calls.Load())
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unavailable", apperr.New(apperr.Unavailable, "resolve", errors.New("refused")), http.StatusServiceUnavailable, "REPOSITORY_UNAVAILABLE"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "CANCELLED"},
		{"other", errors.New("bug"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(&stubReporter{err: tt.err}, 0)
			for _, path := range []string{"dashboard", "financials", "tenants", "applications"} {
				rec, body := do(t, h, "/v1/owners/o/"+path)
				assert.Equal(t, tt.status, rec.Code, path)
				assert.Equal(t, tt.code, body["code"], path)
				assert.NotEmpty(t, body["error"], path)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newRouter(&stubReporter{}, 0), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = do(t, newRouter(&stubReporter{pingErr: errors.New("down")}, 0), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestRecovery(t *testing.T) {
	rec, body := do(t, newRouter(&stubReporter{panicked: true}, 0), "/v1/owners/o/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

type streamFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialStream(t *testing.T, rep Reporter) (context.Context, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(newRouter(rep, 20*time.Millisecond))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/owners/" + ownerID.String() + "/dashboard/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return ctx, conn
}

func TestStream_PushesRepeatedly(t *testing.T) {
	rep := &stubReporter{}
	ctx, conn := dialStream(t, rep)

	for want := 1; want <= 2; want++ {
		var frame streamFrame
		require.NoError(t, wsjson.Read(ctx, conn, &frame))
		assert.Equal(t, "dashboard", frame.Type)

		var stats dashboard.DashboardStats
		require.NoError(t, json.Unmarshal(frame.Data, &stats))
		assert.Equal(t, want, stats.Properties.Total)
	}
}

func TestStream_ReportsFailures(t *testing.T) {
	rep := &stubReporter{err: apperr.New(apperr.Unavailable, "resolve", errors.New("refused"))}
	ctx, conn := dialStream(t, rep)

	for range 2 {
		var frame streamFrame
		require.NoError(t, wsjson.Read(ctx, conn, &frame))
		assert.Equal(t, "error", frame.Type)

		var se StreamError
		require.NoError(t, json.Unmarshal(frame.Data, &se))
		assert.Equal(t, "REPOSITORY_UNAVAILABLE", se.Code)
	}
}

func TestParseAsOf(t *testing.T) {
	got, err := ParseAsOf(" 2024-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseAsOf("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseAsOf("01/06/2024")
	assert.Error(t, err)
}

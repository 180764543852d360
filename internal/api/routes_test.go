package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marginApp/internal/adapters/logger"
	"marginApp/internal/adapters/memory"
	"marginApp/internal/api/middleware"
	"marginApp/internal/app"
)

const testUserID = "7f1d2c3b-4a59-4e6f-8a7b-9c0d1e2f3a4b"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.NewFromZap(zap.NewNop())
	store := memory.NewStore()
	lifecycle, err := app.NewPositionLifecycle(log, store)
	require.NoError(t, err)
	stats, err := app.NewStatisticsService(log, store)
	require.NoError(t, err)

	srv := httptest.NewServer(SetupRoutes(Dependencies{
		Positions:     lifecycle,
		Statistics:    stats,
		Logger:        log,
		AdminIDs:      []int64{1},
		MaxMultiplier: 20,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, jsoniter.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestRoutes_PositionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	code, opened := do(t, srv, http.MethodPost, "/api/margin/open",
		`{"user_id":"`+testUserID+`","borrowed_amount":"0.1","multiplier":2,"transaction_id":"tx-42"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Open", opened["status"])
	assert.Equal(t, "0.1", opened["borrowed_amount"])
	id := opened["id"].(string)

	code, updated := do(t, srv, http.MethodPost, "/api/margin/"+id, `{"borrowed_amount":"0.3"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0.3", updated["borrowed_amount"])
	assert.EqualValues(t, 2, updated["multiplier"])

	code, closed := do(t, srv, http.MethodPost, "/api/margin/close/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, closed["position_id"])
	assert.Equal(t, "Closed", closed["status"])
	assert.Equal(t, false, closed["already_closed"])

	code, again := do(t, srv, http.MethodPost, "/api/margin/close/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, again["already_closed"])

	code, _ = do(t, srv, http.MethodPost, "/api/margin/"+id, `{"multiplier":3}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, got := do(t, srv, http.MethodGet, "/api/margin/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Closed", got["status"])
	assert.EqualValues(t, 2, got["multiplier"])
}

func TestRoutes_Errors(t *testing.T) {
	srv := newTestServer(t)
	missing := "00000000-0000-4000-8000-000000000001"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "update missing", method: http.MethodPost, path: "/api/margin/" + missing, body: `{"multiplier":2}`, want: http.StatusNotFound},
		{name: "close missing", method: http.MethodPost, path: "/api/margin/close/" + missing, want: http.StatusNotFound},
		{name: "get missing", method: http.MethodGet, path: "/api/margin/" + missing, want: http.StatusNotFound},
		{name: "bad uuid", method: http.MethodGet, path: "/api/margin/xyz", want: http.StatusUnprocessableEntity},
		{name: "multiplier too high", method: http.MethodPost, path: "/api/margin/open",
			body: `{"user_id":"` + testUserID + `","borrowed_amount":"1","multiplier":21,"transaction_id":"tx"}`, want: http.StatusUnprocessableEntity},
		{name: "negative amount", method: http.MethodPost, path: "/api/margin/open",
			body: `{"user_id":"` + testUserID + `","borrowed_amount":"-1","multiplier":2,"transaction_id":"tx"}`, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRoutes_Dashboard(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 2; i++ {
		code, _ := do(t, srv, http.MethodPost, "/api/margin/open",
			`{"user_id":"`+testUserID+`","borrowed_amount":10,"multiplier":5,"transaction_id":"tx"}`)
		require.Equal(t, http.StatusOK, code)
	}

	code, _ := do(t, srv, http.MethodGet, "/api/dashboard/statistic", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, srv, http.MethodGet, "/api/dashboard/statistic", "", middleware.AdminHeader, "2")
	assert.Equal(t, http.StatusForbidden, code)

	code, stat := do(t, srv, http.MethodGet, "/api/dashboard/statistic", "", middleware.AdminHeader, "1")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, stat["opened_positions"])
	assert.EqualValues(t, 0, stat["liquidated_positions"])

	code, _ = do(t, srv, http.MethodGet, "/api/dashboard/liquidated", "", middleware.AdminHeader, "1")
	assert.Equal(t, http.StatusOK, code)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "margin_http_requests_total")
}

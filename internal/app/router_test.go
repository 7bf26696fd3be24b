package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/finbook-app/finbook/internal/observability"
	"github.com/finbook-app/finbook/internal/platform/httpx"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterParams{
		Logger:  logger,
		Config:  &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		Metrics: observability.NewMetrics(),
	})
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAPIRequiresTenantHeader(t *testing.T) {
	handler := TenantMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "missing X-Tenant-ID")

	req = httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(TenantHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantMiddlewarePopulatesContext(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()

	var gotTenant, gotActor uuid.UUID
	var actorOK bool
	handler := TenantMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotTenant, _ = httpx.TenantFromContext(r.Context())
			gotActor, actorOK = httpx.ActorFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(TenantHeader, tenantID.String())
	req.Header.Set(ActorHeader, actorID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, tenantID, gotTenant)
	require.True(t, actorOK)
	require.Equal(t, actorID, gotActor)
}

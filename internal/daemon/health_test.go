package daemon

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/leechbot/internal/config"
	"github.com/harun/leechbot/internal/logger"
	"github.com/harun/leechbot/internal/metrics"
	"github.com/harun/leechbot/internal/session"
)

func TestHealthServer_AnswersAnyPath(t *testing.T) {
	srv := newHealthServer(8000, "OK")

	for _, path := range []string{"/", "/healthz", "/anything/else"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, "OK", string(body), path)
	}
}

func TestMetricsServer_ServesRegistry(t *testing.T) {
	m := metrics.NewMetrics()
	m.SessionCreated()

	srv := newMetricsServer(9090, m)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sessions_active")
}

func TestSweepIdleSessions_CountsEvictions(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error", Console: true})
	require.NoError(t, err)
	defer log.Close()

	cfg := config.DefaultConfig()
	cfg.Sessions.IdleTTLMin = 0 // disabled: nothing evicted

	d := &Daemon{
		config:  cfg,
		logger:  log,
		store:   session.NewStore(),
		metrics: metrics.NewMetrics(),
	}

	d.store.Put(1, session.New(1, 1))
	d.sweepIdleSessions()
	assert.Equal(t, 1, d.store.Len())
}

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycleMetrics(t *testing.T) {
	m := NewMetrics()

	m.SessionCreated()
	m.SessionCreated()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsTotal))

	m.SessionClosed("delivered")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsClosed.WithLabelValues("delivered")))
}

func TestDownloadMetrics(t *testing.T) {
	m := NewMetrics()

	m.DownloadObserved("PDF", "success", 1.5)
	m.DownloadObserved("VIDEO", "error", 0.2)
	m.UploadObserved("success")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.DownloadsTotal.WithLabelValues("PDF", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DownloadsTotal.WithLabelValues("VIDEO", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UploadsTotal.WithLabelValues("success")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := NewMetrics()
	m.TelegramMessagesReceivedTotal.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

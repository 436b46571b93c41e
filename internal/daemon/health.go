package daemon

import (
	"fmt"
	"net/http"
	"time"

	"github.com/harun/leechbot/internal/metrics"
)

// newHealthServer builds the liveness listener: any path, any method, a
// fixed 200 response. Platform keep-alive probes poll it.
func newHealthServer(port int, body string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// newMetricsServer exposes the Prometheus registry on /metrics.
func newMetricsServer(port int, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

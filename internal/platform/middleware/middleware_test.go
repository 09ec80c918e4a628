package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"lumina/internal/platform/metrics"
)

var testMetrics = metrics.New()

func newInstrumentedRouter(m *metrics.Metrics) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(Logger(logger, m))
	r.Get("/things/{thingID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestLoggerObservesEndpointLatency(t *testing.T) {
	server := httptest.NewServer(newInstrumentedRouter(testMetrics))
	defer server.Close()

	for _, path := range []string{"/things/42", "/things/99"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// Both requests share the route pattern, so they collapse into a
	// single series instead of one per path.
	require.Equal(t, 1, testutil.CollectAndCount(testMetrics.EndpointLatency))
}

func TestLoggerWithoutMetrics(t *testing.T) {
	server := httptest.NewServer(newInstrumentedRouter(nil))
	defer server.Close()

	resp, err := http.Get(server.URL + "/things/42")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

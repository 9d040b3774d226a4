package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
)

func TestNewMetricsIsolated(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.ObserveOperation("get_files", audit.OutcomeSuccess, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.OperationsTotal.WithLabelValues("get_files", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OperationsTotal.WithLabelValues("get_files", "success")))
}

func TestObserveOperationSnapshot(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("delete_file", audit.OutcomeDenied, time.Millisecond)
	m.ObserveOperation("delete_file", audit.OutcomeDenied, time.Millisecond)
	m.ObserveOperation("create_file", audit.OutcomeSuccess, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Operations)
	assert.Equal(t, int64(2), snap.Outcomes["denied"])
	assert.Equal(t, int64(1), snap.Outcomes["success"])

	snap.Outcomes["denied"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Outcomes["denied"], "snapshot must be a copy")
}

func TestRecorderCountsEvents(t *testing.T) {
	m := NewMetrics()
	rec := m.Recorder()

	e := audit.NewEvent("move_file", "agent", "/data/a.txt").Denied("outside_whitelist")
	require.NoError(t, rec.Record(context.Background(), e))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues("move_file", "denied")))
}

func TestWSConnections(t *testing.T) {
	m := NewMetrics()
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", unmatchedPath, "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "filemaster_http_requests_total"))
	assert.True(t, strings.Contains(body, "filemaster_uptime_seconds"))
}

func TestTimer(t *testing.T) {
	m := NewMetrics()
	timer := NewTimer(m, "search_files")
	timer.Stop(audit.OutcomeSuccess)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("search_files", "success")))

	NewTimer(nil, "noop").Stop(audit.OutcomeSuccess)
}

func TestWatchDropped(t *testing.T) {
	m := NewMetrics()
	var dropped int64
	m.WatchDropped("sqlite", func() int64 { return dropped })
	dropped = 3

	expected := `
# HELP filemaster_audit_dropped_total Audit events skipped while a sink's circuit was open
# TYPE filemaster_audit_dropped_total counter
filemaster_audit_dropped_total{sink="sqlite"} 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "filemaster_audit_dropped_total"))
}

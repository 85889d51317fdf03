package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Run("completed")
	m.Row("uploaded")
	m.RemoteCall("upload", time.Now(), nil)
	m.Retry("upload")
	m.Notification("sent")
}

func TestCounters(t *testing.T) {
	m := New("test")

	m.Row("uploaded")
	m.Row("uploaded")
	m.Row("skipped")
	m.Retry("create_file")
	m.RemoteCall("create_file", time.Now(), errors.New("boom"))
	m.RemoteCall("create_file", time.Now(), nil)

	if got := testutil.ToFloat64(m.RowsProcessed.WithLabelValues("uploaded")); got != 2 {
		t.Errorf("Expected 2 uploaded rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.RemoteRetries.WithLabelValues("create_file")); got != 1 {
		t.Errorf("Expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(m.RemoteCalls.WithLabelValues("create_file", "error")); got != 1 {
		t.Errorf("Expected 1 failed call, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New("test")
	m.Run("completed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_runs_total") {
		t.Errorf("Expected test_runs_total in exposition, got %s", body)
	}
}

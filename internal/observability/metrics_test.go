package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveResection(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.ObserveResection("planar", "intersection", "ok", 20*time.Microsecond)
	c.ObserveResection("planar", "intersection", "ok", 30*time.Microsecond)
	c.ObserveResection("geographic", "triangle", "degenerate_triangle", time.Microsecond)

	if got := testutil.ToFloat64(c.Resections.WithLabelValues("planar", "intersection", "ok")); got != 2 {
		t.Fatalf("fos_resections_total{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Resections.WithLabelValues("geographic", "triangle", "degenerate_triangle")); got != 1 {
		t.Fatalf("fos_resections_total{degenerate} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "fos_resection_duration_seconds", map[string]string{
		"model":  "planar",
		"method": "intersection",
	}); count != 2 {
		t.Fatalf("fos_resection_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestObserveHTTPAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.ObserveHTTP("POST", "/v1/resect", 422, 5*time.Millisecond)
	c.ObserveNATS("fos.resect", 200)

	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("POST", "/v1/resect", "422")); got != 1 {
		t.Fatalf("fos_http_requests_total = %v, want 1", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{"fos_http_requests_total", "fos_http_request_duration_seconds", "fos_nats_requests_total"} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestNewCollector_Reregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	second.ObserveResection("planar", "triangle", "ok", 0)
	if got := testutil.ToFloat64(first.Resections.WithLabelValues("planar", "triangle", "ok")); got != 1 {
		t.Fatalf("collectors do not share the registered vector: %v", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveResection("planar", "triangle", "ok", 0)
	c.ObserveHTTP("GET", "/", 200, 0)
	c.ObserveNATS("fos.resect", 200)
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

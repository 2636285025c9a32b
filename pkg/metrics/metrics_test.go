package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe(http.MethodGet, "/inventory", http.StatusOK, 120*time.Millisecond)
	m.Observe(http.MethodGet, "/inventory", http.StatusOK, 80*time.Millisecond)
	m.Observe(http.MethodPut, "", http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"method": "GET", "route": "/inventory", "status": "200"})
	if err != nil {
		t.Fatalf("fetch requests: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}

	got, err = fetchCounterValue(mfs, "http_requests_total", map[string]string{"method": "PUT", "route": "unknown", "status": "404"})
	if err != nil {
		t.Fatalf("fetch unknown route: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1 unmatched request, got %f", got)
	}

	sum, err := fetchHistogramSum(mfs, "http_request_duration_seconds", map[string]string{"method": "GET", "route": "/inventory"})
	if err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
	if sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestIngestMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngestMetrics(reg)
	m.IncInserted("inventory")
	m.IncInserted("inventory")
	m.IncSkipped("orders")
	m.ObserveDuration("orders", time.Second)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "ingest_rows_total", map[string]string{"kind": "inventory", "outcome": OutcomeInserted}); err != nil || got != 2 {
		t.Fatalf("expected 2 inserted inventory rows, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "ingest_rows_total", map[string]string{"kind": "orders", "outcome": OutcomeSkipped}); err != nil || got != 1 {
		t.Fatalf("expected 1 skipped order row, got %f (%v)", got, err)
	}
	if sum, err := fetchHistogramSum(mfs, "ingest_file_duration_seconds", map[string]string{"kind": "orders"}); err != nil || sum != 1 {
		t.Fatalf("expected 1s duration, got %f (%v)", sum, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var h *HTTPMetrics
	h.Observe(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	var i *IngestMetrics
	i.IncInserted("inventory")
	i.ObserveDuration("inventory", time.Millisecond)

	NewHTTPMetrics(nil).Observe(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	NewIngestMetrics(nil).IncSkipped("orders")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

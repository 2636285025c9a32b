package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeInserted = "inserted"
	OutcomeSkipped  = "skipped"
)

// IngestMetrics tracks loader row outcomes per file kind.
type IngestMetrics struct {
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewIngestMetrics registers the loader metrics on the provided registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_total",
		Help: "Rows processed by the loader, by kind and outcome.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_file_duration_seconds",
		Help:    "Time spent loading one source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	reg.MustRegister(rows, duration)
	return &IngestMetrics{rows: rows, duration: duration}
}

// IncInserted counts a persisted row.
func (m *IngestMetrics) IncInserted(kind string) {
	m.inc(kind, OutcomeInserted)
}

// IncSkipped counts a rejected row.
func (m *IngestMetrics) IncSkipped(kind string) {
	m.inc(kind, OutcomeSkipped)
}

// ObserveDuration records the load time for one file.
func (m *IngestMetrics) ObserveDuration(kind string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind)).Observe(elapsed.Seconds())
}

func (m *IngestMetrics) inc(kind, outcome string) {
	if m == nil || m.rows == nil {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(kind), outcome).Inc()
}

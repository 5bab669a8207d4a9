package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the import pipeline.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	importRows *prometheus.CounterVec
	importRuns *prometheus.CounterVec
}

// New registers the import collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Total CSV rows processed, by domain and outcome",
	}, []string{"domain", "outcome"})

	importRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_runs_total",
		Help: "Total import runs, by domain and status",
	}, []string{"domain", "status"})

	registry.MustRegister(importRows, importRuns)

	return &Metrics{
		registry:   registry,
		handler:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		importRows: importRows,
		importRuns: importRuns,
	}
}

// ObserveRow increments the row counter. Outcome is success, skip or error.
func (m *Metrics) ObserveRow(domain, outcome string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(domain, outcome).Inc()
}

// ObserveRun increments the run counter. Status is success or failed.
func (m *Metrics) ObserveRun(domain, status string) {
	if m == nil {
		return
	}
	m.importRuns.WithLabelValues(domain, status).Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

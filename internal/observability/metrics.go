package observability

import (
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "ontograph"

// Result labels for analysis runs.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the analysis metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	findings *prometheus.GaugeVec
	nodes    prometheus.Gauge
	edges    prometheus.Gauge
}

// NewMetrics creates the ontograph metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Analyzer runs by result",
		}, []string{"analyzer", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analyzer run time in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"analyzer"}),
		findings: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "findings",
			Help:      "Findings produced by the last run of each analyzer",
		}, []string{"analyzer"}),
		nodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the analyzed graph",
		}),
		edges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Edges in the analyzed graph",
		}),
	}
}

// RecordAnalysis records one analyzer run.
func (m *Metrics) RecordAnalysis(analyzer string, duration time.Duration, findings int, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.runs.WithLabelValues(analyzer, result).Inc()
	m.duration.WithLabelValues(analyzer).Observe(duration.Seconds())
	if err == nil {
		m.findings.WithLabelValues(analyzer).Set(float64(findings))
	}
}

// SetGraphSize records the size of the analyzed graph.
func (m *Metrics) SetGraphSize(nodes, edges int) {
	m.nodes.Set(float64(nodes))
	m.edges.Set(float64(edges))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AnalyzerStats is a gathered view of one analyzer's metrics.
type AnalyzerStats struct {
	Analyzer string
	Runs     int
	Errors   int
	Seconds  float64
	Findings int
}

// MetricsSnapshot is a gathered view of all metrics.
type MetricsSnapshot struct {
	Nodes     int
	Edges     int
	Analyzers []AnalyzerStats
}

// Snapshot gathers the registry and returns per-analyzer totals sorted by name.
func (m *Metrics) Snapshot() (MetricsSnapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return MetricsSnapshot{}, err
	}

	var snap MetricsSnapshot
	byName := make(map[string]*AnalyzerStats)
	stats := func(name string) *AnalyzerStats {
		s, ok := byName[name]
		if !ok {
			s = &AnalyzerStats{Analyzer: name}
			byName[name] = s
		}
		return s
	}

	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := labelMap(metric)
			switch mf.GetName() {
			case namespace + "_graph_nodes":
				snap.Nodes = int(metric.GetGauge().GetValue())
			case namespace + "_graph_edges":
				snap.Edges = int(metric.GetGauge().GetValue())
			case namespace + "_analysis_runs_total":
				s := stats(labels["analyzer"])
				n := int(metric.GetCounter().GetValue())
				s.Runs += n
				if labels["result"] == ResultError {
					s.Errors += n
				}
			case namespace + "_analysis_duration_seconds":
				stats(labels["analyzer"]).Seconds = metric.GetHistogram().GetSampleSum()
			case namespace + "_analysis_findings":
				stats(labels["analyzer"]).Findings = int(metric.GetGauge().GetValue())
			}
		}
	}

	for _, s := range byName {
		snap.Analyzers = append(snap.Analyzers, *s)
	}
	sort.Slice(snap.Analyzers, func(i, j int) bool {
		return snap.Analyzers[i].Analyzer < snap.Analyzers[j].Analyzer
	})
	return snap, nil
}

func labelMap(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

// Package metrics exposes driver counters as Prometheus collectors.
//
// All methods are safe on a nil *Metrics, so components can take an
// optional metrics handle without checks at every call site.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ycpswasyn"

// Metrics holds the driver collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	records       *prometheus.CounterVec
	degraded      prometheus.Counter
	branchErrors  prometheus.Counter
	dictMisses    prometheus.Gauge
	streamFrames  *prometheus.CounterVec
	runtimeErrors *prometheus.CounterVec
	configOps     *prometheus.CounterVec
}

// New creates and registers the collectors. port is attached as a constant
// label.
func New(port string) *Metrics {
	labels := prometheus.Labels{"port": port}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "records_total",
			Help:        "Records materialized, by kind and address class.",
			ConstLabels: labels,
		}, []string{"kind", "class"}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "degraded_total",
			Help:        "Enumerations too large for a menu record.",
			ConstLabels: labels,
		}),
		branchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "branch_errors_total",
			Help:        "Subtrees or leaves abandoned during traversal.",
			ConstLabels: labels,
		}),
		dictMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "dictionary_misses",
			Help:        "Distinct path segments that matched no dictionary.",
			ConstLabels: labels,
		}),
		streamFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stream_frames_total",
			Help:        "Frames read per stream.",
			ConstLabels: labels,
		}, []string{"stream"}),
		runtimeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "runtime_errors_total",
			Help:        "Failed runtime register accesses, by handler.",
			ConstLabels: labels,
		}, []string{"function"}),
		configOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "config_operations_total",
			Help:        "Configuration save and load operations, by result.",
			ConstLabels: labels,
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(
		m.records, m.degraded, m.branchErrors, m.dictMisses,
		m.streamFrames, m.runtimeErrors, m.configOps,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordCreated(kind, class string) {
	if m != nil {
		m.records.WithLabelValues(kind, class).Inc()
	}
}

func (m *Metrics) Degraded() {
	if m != nil {
		m.degraded.Inc()
	}
}

func (m *Metrics) BranchError() {
	if m != nil {
		m.branchErrors.Inc()
	}
}

func (m *Metrics) SetDictionaryMisses(n int) {
	if m != nil {
		m.dictMisses.Set(float64(n))
	}
}

func (m *Metrics) StreamFrame(stream string) {
	if m != nil {
		m.streamFrames.WithLabelValues(stream).Inc()
	}
}

func (m *Metrics) RuntimeError(function string) {
	if m != nil {
		m.runtimeErrors.WithLabelValues(function).Inc()
	}
}

func (m *Metrics) ConfigOperation(op, result string) {
	if m != nil {
		m.configOps.WithLabelValues(op, result).Inc()
	}
}

// Package metrics exposes Prometheus instrumentation for the gateway, the
// analysis services and the tool front end.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// Metrics holds all collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	GatewayCalls    *prometheus.CounterVec
	GatewayLatency  *prometheus.HistogramVec
	RegistryLookups *prometheus.CounterVec
	RefreshLatency  *prometheus.HistogramVec
	BatchAddresses  *prometheus.CounterVec
	BatchLatency    prometheus.Histogram
	Opportunities   *prometheus.CounterVec
	ToolCalls       *prometheus.CounterVec
	ToolLatency     *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		GatewayCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "liqscope_gateway_calls_total",
			Help: "Ledger calls by method and outcome",
		}, []string{"method", "outcome"}),
		GatewayLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "liqscope_gateway_call_seconds",
			Help:    "Ledger call latency",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"method"}),
		RegistryLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "liqscope_reserve_cache_lookups_total",
			Help: "Reserve list lookups by cache result",
		}, []string{"result"}),
		RefreshLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "liqscope_reserve_refresh_seconds",
			Help:    "Reserve list refresh duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		BatchAddresses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "liqscope_batch_addresses_total",
			Help: "Addresses analysed in batches by outcome",
		}, []string{"outcome"}),
		BatchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "liqscope_batch_seconds",
			Help:    "Batch analysis duration",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Opportunities: f.NewCounterVec(prometheus.CounterOpts{
			Name: "liqscope_opportunities_total",
			Help: "Opportunities found by risk tier",
		}, []string{"tier"}),
		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "liqscope_tool_calls_total",
			Help: "Tool invocations by tool and outcome",
		}, []string{"tool", "outcome"}),
		ToolLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "liqscope_tool_call_seconds",
			Help:    "Tool invocation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCall records one ledger call.
func (m *Metrics) ObserveCall(method string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.GatewayCalls.WithLabelValues(method, callOutcome(err)).Inc()
	m.GatewayLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RegistryLookup records a reserve cache hit or miss.
func (m *Metrics) RegistryLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.RegistryLookups.WithLabelValues(result).Inc()
}

// RegistryRefresh records a reserve list refresh.
func (m *Metrics) RegistryRefresh(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.RefreshLatency.WithLabelValues(outcome(err)).Observe(elapsed.Seconds())
}

// BatchCompleted records one batch analysis.
func (m *Metrics) BatchCompleted(size, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BatchAddresses.WithLabelValues("ok").Add(float64(size - failed))
	m.BatchAddresses.WithLabelValues("error").Add(float64(failed))
	m.BatchLatency.Observe(elapsed.Seconds())
}

// OpportunityFound records one opportunity.
func (m *Metrics) OpportunityFound(tier domain.RiskTier) {
	if m == nil {
		return
	}
	m.Opportunities.WithLabelValues(string(tier)).Inc()
}

// ToolCall records one tool invocation.
func (m *Metrics) ToolCall(tool string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome(err)).Inc()
	m.ToolLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}

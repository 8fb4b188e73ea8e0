package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics counts hypervisor traffic and resource lifecycle outcomes on a
// private registry. A nil *Metrics is a valid no-op collector, so callers
// never have to guard their observe calls.
type Metrics struct {
	config MetricsConfig

	requestsTotal    *prometheus.CounterVec
	waitsTotal       *prometheus.CounterVec
	resourceOpsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with the given configuration.
// A disabled configuration yields a no-op collector.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "hypervisor_requests_total",
				Help:      "Total number of hypervisor API requests by method and response type",
			},
			[]string{"method", "response_type"},
		),
		waitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "operation_waits_total",
				Help:      "Total number of asynchronous operation waits by outcome",
			},
			[]string{"outcome"},
		),
		resourceOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "resource_operations_total",
				Help:      "Total number of resource lifecycle operations by collection, action and outcome",
			},
			[]string{"collection", "action", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.requestsTotal, m.waitsTotal, m.resourceOpsTotal} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveRequest counts one hypervisor request and its response
// classification ("sync", "async", "error", or a transport failure).
func (m *Metrics) ObserveRequest(method, responseType string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, responseType).Inc()
}

// ObserveWait counts one asynchronous operation wait.
func (m *Metrics) ObserveWait(outcome string) {
	if m == nil {
		return
	}
	m.waitsTotal.WithLabelValues(outcome).Inc()
}

// ObserveResourceOp counts one resource lifecycle operation.
func (m *Metrics) ObserveResourceOp(collection, action, outcome string) {
	if m == nil {
		return
	}
	m.resourceOpsTotal.WithLabelValues(collection, action, outcome).Inc()
}

// LogSummary gathers the registry and logs every non-zero counter at debug
// level. Called once when a run ends; there is no scrape endpoint in a
// one-shot process.
func (m *Metrics) LogSummary(log *Logger) {
	if m == nil {
		return
	}

	families, err := m.registry.Gather()
	if err != nil {
		log.WithError(err).Warn("gathering metrics failed")
		return
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter().GetValue() == 0 {
				continue
			}
			entry := log.WithField("metric", family.GetName()).
				WithField("value", metric.GetCounter().GetValue())
			for _, label := range metric.GetLabel() {
				entry = entry.WithField(label.GetName(), label.GetValue())
			}
			entry.Debug("counter")
		}
	}
}

// Gather exposes the raw metric families, for tests.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	if m == nil {
		return nil, nil
	}
	return m.registry.Gather()
}

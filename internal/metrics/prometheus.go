package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "soflotto"

// PrometheusMetrics exports engine metrics through a Prometheus registry.
// Metric names passed to the Metrics methods become the "metric" label of a
// shared vector per metric type.
type PrometheusMetrics struct {
	registry   *prometheus.Registry
	counters   *prometheus.CounterVec
	gauges     *prometheus.GaugeVec
	histograms *prometheus.HistogramVec
	buildInfo  *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a backend with its own registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		counters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total count of engine events by metric name",
			},
			[]string{"metric"},
		),
		gauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "state",
				Help:      "Current value of engine state gauges by metric name",
			},
			[]string{"metric"},
		),
		histograms: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "observation",
				Help:      "Distribution of engine observations by metric name",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 0.01 to ~82
			},
			[]string{"metric"},
		),
		buildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Build information of the soflotto engine",
			},
			[]string{"version", "commit", "date"},
		),
	}
}

// SetBuildInfo publishes the build labels.
func (p *PrometheusMetrics) SetBuildInfo(version, commit, date string) {
	p.buildInfo.WithLabelValues(version, commit, date).Set(1)
}

// Registry returns the underlying registry.
func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusMetrics) Initialize(ctx context.Context) error { return nil }
func (p *PrometheusMetrics) Flush(ctx context.Context) error      { return nil }
func (p *PrometheusMetrics) Shutdown(ctx context.Context) error   { return nil }

func (p *PrometheusMetrics) UpdateGauge(ctx context.Context, name string, value float64) error {
	p.gauges.WithLabelValues(name).Set(value)
	return nil
}

func (p *PrometheusMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	p.counters.WithLabelValues(name).Add(float64(value))
	return nil
}

func (p *PrometheusMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	p.histograms.WithLabelValues(name).Observe(value)
	return nil
}

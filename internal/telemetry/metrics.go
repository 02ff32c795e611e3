// Package telemetry holds the Prometheus metrics and the tracer used while
// enabling classes.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of weave spans
const TracerName = "github.com/toyz/weave"

// Outcome is the result of enabling one class
type Outcome string

const (
	OutcomeRegistered Outcome = "registered" // a model was registered
	OutcomeSkipped    Outcome = "skipped"    // the class needs no interception
	OutcomeFailed     Outcome = "failed"
)

// Metrics holds the Prometheus metrics of the container
type Metrics struct {
	classesTotal     *prometheus.CounterVec
	deploymentErrors *prometheus.CounterVec
	initDuration     *prometheus.HistogramVec
	modelsRegistered prometheus.Gauge
	registrations    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates the metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		classesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weave_classes_total",
				Help: "Classes processed by the interception model initializer, by outcome",
			},
			[]string{"outcome"},
		),
		deploymentErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weave_deployment_errors_total",
				Help: "Deployment errors raised while building interception models, by reason",
			},
			[]string{"reason"},
		),
		initDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weave_model_init_duration_seconds",
				Help:    "Time spent building the interception model of one class",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"outcome"},
		),
		modelsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "weave_models_registered",
				Help: "Interception models currently held by the registry",
			},
		),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weave_model_registrations_total",
				Help: "Interception models stored in the registry, by whether they replaced an earlier model",
			},
			[]string{"replaced"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.classesTotal,
		m.deploymentErrors,
		m.initDuration,
		m.modelsRegistered,
		m.registrations,
	)
	return m
}

// RecordClass records one class enablement
func (m *Metrics) RecordClass(outcome Outcome, duration time.Duration) {
	m.classesTotal.WithLabelValues(string(outcome)).Inc()
	m.initDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
}

// RecordDeploymentError records a deployment error by reason
func (m *Metrics) RecordDeploymentError(reason string) {
	m.deploymentErrors.WithLabelValues(reason).Inc()
}

// RecordRegistration records one model stored in the registry
func (m *Metrics) RecordRegistration(replaced bool) {
	m.registrations.WithLabelValues(strconv.FormatBool(replaced)).Inc()
}

// SetModels sets the number of registered models
func (m *Metrics) SetModels(n int) {
	m.modelsRegistered.Set(float64(n))
}

// Handler returns the HTTP handler exposing the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Tracer returns the tracer of the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

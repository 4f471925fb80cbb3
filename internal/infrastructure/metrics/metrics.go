package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	PatientsAdded    prometheus.Counter
	PatientsRejected *prometheus.CounterVec
	Lookups          *prometheus.CounterVec
	LookupLatency    *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PatientsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "registry_patients_added_total",
			Help: "Patients validated and stored",
		}),
		PatientsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_patients_rejected_total",
			Help: "Patients refused by validation, by error code",
		}, []string{"code"}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_lookups_total",
			Help: "Name and surname registry lookups by outcome",
		}, []string{"registry", "outcome"}), // outcome: found, missing, error
		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_lookup_duration_seconds",
			Help:    "Duration of name and surname registry lookups",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"registry"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PatientAdded implements the collection recorder
func (m *Metrics) PatientAdded() {
	if m != nil {
		m.PatientsAdded.Inc()
	}
}

// PatientRejected implements the collection recorder
func (m *Metrics) PatientRejected(code string) {
	if m != nil {
		m.PatientsRejected.WithLabelValues(code).Inc()
	}
}

// ObserveHTTP records a served request. route is the matched route pattern,
// not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) observeLookup(registry string, start time.Time, found bool, err error) {
	m.LookupLatency.WithLabelValues(registry).Observe(time.Since(start).Seconds())
	outcome := "missing"
	switch {
	case err != nil:
		outcome = "error"
	case found:
		outcome = "found"
	}
	m.Lookups.WithLabelValues(registry, outcome).Inc()
}

// Names instruments a name registry
func (m *Metrics) Names(upstream patient.NameRegistry) patient.NameRegistry {
	if m == nil || upstream == nil {
		return upstream
	}
	return instrumentedNames{m: m, upstream: upstream}
}

// Surnames instruments a surname registry
func (m *Metrics) Surnames(upstream patient.SurnameRegistry) patient.SurnameRegistry {
	if m == nil || upstream == nil {
		return upstream
	}
	return instrumentedSurnames{m: m, upstream: upstream}
}

type instrumentedNames struct {
	m        *Metrics
	upstream patient.NameRegistry
}

func (r instrumentedNames) NameExists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	found, err := r.upstream.NameExists(ctx, name)
	r.m.observeLookup("name", start, found, err)
	return found, err
}

type instrumentedSurnames struct {
	m        *Metrics
	upstream patient.SurnameRegistry
}

func (r instrumentedSurnames) SurnameExists(ctx context.Context, surname string) (bool, error) {
	start := time.Now()
	found, err := r.upstream.SurnameExists(ctx, surname)
	r.m.observeLookup("surname", start, found, err)
	return found, err
}

// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "duckwatch"

// Status build outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
)

// Recorder owns the collectors and the registry they are registered in.
type Recorder struct {
	registry      *prom.Registry
	statusBuilds  *prom.CounterVec
	buildDuration prom.Histogram
	httpRequests  *prom.CounterVec
	mqttPublishes *prom.CounterVec
}

// NewRecorder registers all collectors in reg, or in a fresh registry when reg is nil.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		statusBuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "status_builds_total",
			Help:      "Pond status views built, by outcome",
		}, []string{"outcome"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "status_build_duration_seconds",
			Help:      "Time spent reading the store and assembling a pond status view",
			Buckets:   prom.DefBuckets,
		}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code",
		}, []string{"method", "status"}),
		mqttPublishes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publishes_total",
			Help:      "Pond status publishes to the MQTT broker, by result",
		}, []string{"result"}),
	}
	reg.MustRegister(r.statusBuilds, r.buildDuration, r.httpRequests, r.mqttPublishes)
	return r
}

func (r *Recorder) ObserveStatusBuild(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.statusBuilds.WithLabelValues(outcome).Inc()
	r.buildDuration.Observe(d.Seconds())
}

func (r *Recorder) ObserveHTTPRequest(method string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (r *Recorder) ObserveMQTTPublish(ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	r.mqttPublishes.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

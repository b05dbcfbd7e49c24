// Package metrics exposes Prometheus series for the review service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

const namespace = "reviewant"

// Recorder owns every collector. A nil *Recorder is valid and records nothing.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	refreshDecisions *prometheus.CounterVec
	draftsProcessed  *prometheus.CounterVec
	playersCreated   prometheus.Counter
	sharesPosted     *prometheus.CounterVec
}

// NewRegistry returns a registry preloaded with runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Match provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Match provider request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		refreshDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "decisions_total",
			Help:      "Refresh gate decisions.",
		}, []string{"allowed"}),
		draftsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "drafts_total",
			Help:      "Review drafts processed by outcome.",
		}, []string{"outcome"}),
		playersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "players",
			Name:      "created_total",
			Help:      "Reviewed players created on first review.",
		}),
		sharesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "posts_total",
			Help:      "Share announcements by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		r.upstreamRequests,
		r.upstreamLatency,
		r.refreshDecisions,
		r.draftsProcessed,
		r.playersCreated,
		r.sharesPosted,
	)
	return r
}

func (r *Recorder) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	r.upstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (r *Recorder) RefreshDecision(allowed bool) {
	if r == nil {
		return
	}
	label := "false"
	if allowed {
		label = "true"
	}
	r.refreshDecisions.WithLabelValues(label).Inc()
}

func (r *Recorder) DraftProcessed(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.draftsProcessed.WithLabelValues("submitted").Inc()
		return
	}
	r.draftsProcessed.WithLabelValues("failed").Inc()
}

func (r *Recorder) PlayerCreated() {
	if r == nil {
		return
	}
	r.playersCreated.Inc()
}

func (r *Recorder) SharePosted(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.sharesPosted.WithLabelValues("error").Inc()
		return
	}
	r.sharesPosted.WithLabelValues("ok").Inc()
}

var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Provide(NewRecorder),
)

package config

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors on a dedicated registry.
type Metrics struct {
	Registry *prometheus.Registry

	EventsReceived  *prometheus.CounterVec
	StageAttempts   *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	DeadLetters     *prometheus.CounterVec
	Warnings        *prometheus.CounterVec
	ReviewActions   *prometheus.CounterVec
	BreakerState    *prometheus.GaugeVec
	PendingJobs     prometheus.Gauge
	ArtifactsRender prometheus.Counter
}

func NewMetrics() *Metrics {
	self := &Metrics{
		Registry: prometheus.NewRegistry(),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quaestor",
			Name:      "events_received_total",
			Help:      "Webhook events by outcome.",
		}, []string{"outcome"}),
		StageAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quaestor",
			Name:      "stage_attempts_total",
			Help:      "Pipeline stage attempts by stage and result.",
		}, []string{"stage", "result"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quaestor",
			Name:      "stage_duration_seconds",
			Help:      "Duration of successful pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		DeadLetters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quaestor",
			Name:      "dead_letters_total",
			Help:      "Events moved to the dead letter store by stage.",
		}, []string{"stage"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quaestor",
			Name:      "warnings_total",
			Help:      "Pipeline warnings by kind.",
		}, []string{"kind"}),
		ReviewActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quaestor",
			Name:      "review_transitions_total",
			Help:      "Review state transitions by target state.",
		}, []string{"state"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quaestor",
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker of a spec_ref is open.",
		}, []string{"spec_ref"}),
		PendingJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quaestor",
			Name:      "pending_jobs",
			Help:      "Jobs queued or running in the scheduler.",
		}),
		ArtifactsRender: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quaestor",
			Name:      "artifacts_rendered_total",
			Help:      "Test artifacts rendered.",
		}),
	}

	self.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		self.EventsReceived,
		self.StageAttempts,
		self.StageDuration,
		self.DeadLetters,
		self.Warnings,
		self.ReviewActions,
		self.BreakerState,
		self.PendingJobs,
		self.ArtifactsRender,
	)

	return self
}

func (self *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(self.Registry, promhttp.HandlerOpts{Registry: self.Registry})
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeDropped  = "dropped"
)

type Metrics struct {
	WorkflowTransitions *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	NotificationQueue   prometheus.Gauge
	EmployeesCreated    prometheus.Counter
	EndpointLatency     *prometheus.HistogramVec
	SweptOfferTokens    prometheus.Counter
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WorkflowTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_workflow_transitions_total",
			Help: "Workflow operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_notifications_total",
			Help: "Notification deliveries by event type and outcome",
		}, []string{"event", "outcome"}),
		NotificationQueue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onboarding_notification_queue_depth",
			Help: "Events waiting for a notification worker",
		}),
		EmployeesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_employees_created_total",
			Help: "Employee records materialized on approval",
		}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboarding_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		SweptOfferTokens: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_offer_tokens_swept_total",
			Help: "Expired offer tokens cleared by the scheduled sweep",
		}),
	}
}

// NewNop returns collectors registered nowhere, for tests and tools
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveTransition(operation, outcome string) {
	m.WorkflowTransitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveNotification(event, outcome string) {
	m.NotificationsSent.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) ObserveEndpoint(method, route, status string, start time.Time) {
	m.EndpointLatency.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}

// Package metrics holds the client's Prometheus collectors.
//
// Collectors live on a private registry so a CLI run can push them to a
// Pushgateway without dragging in the process collectors.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	metricPrefix = "evenly_"

	// Submission outcomes.
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics is a set of collectors bound to one registry.
type Metrics struct {
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	submissions     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "api_request_duration_seconds",
				Help:    "API request latency in seconds by status code and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code", "method"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "api_requests_in_flight",
			Help: "API requests currently in flight",
		}),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "expense_submissions_total",
				Help: "Expense submissions by outcome",
			},
			[]string{"outcome"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "split_rejections_total",
				Help: "Submissions blocked before dispatch by reason",
			},
			[]string{"reason"},
		),
	}
	m.Registry.MustRegister(m.requestDuration, m.inFlight, m.submissions, m.rejections)
	return m
}

// RoundTripper instruments next with request latency and in-flight count.
func (m *Metrics) RoundTripper(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(m.inFlight,
		promhttp.InstrumentRoundTripperDuration(m.requestDuration, next))
}

// ObserveSubmission counts one expense submission attempt.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// ObserveRejection counts a submission blocked locally. reason is "form" for
// a validation failure and "unreconciled" for a split that does not add up.
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
	m.submissions.WithLabelValues(OutcomeRejected).Inc()
}

// Push sends the registry to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string, client *http.Client) error {
	pusher := push.New(gatewayURL, job).Gatherer(m.Registry)
	if client != nil {
		pusher = pusher.Client(client)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

// Package metrics exposes Prometheus counters for authentication, membership
// and message activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "members_only"

// Result label values.
const (
	ResultSuccess       = "success"
	ResultUserNotFound  = "user_not_found"
	ResultBadPassword   = "bad_password"
	ResultInvalid       = "invalid"
	ResultConflict      = "conflict"
	ResultIncorrectCode = "incorrect_code"
	ResultError         = "error"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	promotions    *prometheus.CounterVec
	messages      *prometheus.CounterVec
	denials       *prometheus.CounterVec
}

// New registers the counters with reg. Pass a fresh prometheus.NewRegistry()
// in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by result and granted role.",
		}, []string{"result", "role"}),
		promotions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "member_promotions_total",
			Help:      "Membership promotion attempts by result.",
		}, []string{"result"}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_operations_total",
			Help:      "Message creations and deletions.",
		}, []string{"op"}),
		denials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Requests stopped by an access gate.",
		}, []string{"gate"}),
	}
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Registration(result, role string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result, role).Inc()
}

func (m *Metrics) Promotion(result string) {
	if m == nil {
		return
	}
	m.promotions.WithLabelValues(result).Inc()
}

func (m *Metrics) MessageOp(op string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(op).Inc()
}

func (m *Metrics) Denied(gate string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(gate).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

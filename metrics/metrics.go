// Package metrics holds the Prometheus collectors of the wire client and the
// poller.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "webdriver"

// Metrics are the custom metrics used by xk6-webdriver.
type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	WireErrors      *prometheus.CounterVec
	PollAttempts    prometheus.Counter
	PollTimeouts    prometheus.Counter
}

// New creates our custom metrics and registers them with reg.
// It panics if any of them is already registered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Wire protocol commands sent to the remote server.",
		}, []string{"method"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Round trip time of wire protocol commands.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WireErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wire_errors_total",
			Help:      "Classified errors returned by the remote server, by status.",
		}, []string{"status"}),
		PollAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Attempts made while waiting for a result.",
		}),
		PollTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_timeouts_total",
			Help:      "Waits that ran out of time.",
		}),
	}
	reg.MustRegister(m.Commands, m.CommandDuration, m.WireErrors, m.PollAttempts, m.PollTimeouts)

	return m
}

// NewNop returns metrics registered on a private registry, for callers that
// don't export them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveCommand records a finished command.
func (m *Metrics) ObserveCommand(method string, took time.Duration) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(method).Inc()
	m.CommandDuration.WithLabelValues(method).Observe(took.Seconds())
}

// IncWireError counts a classified error by its status name.
func (m *Metrics) IncWireError(status string) {
	if m == nil {
		return
	}
	m.WireErrors.WithLabelValues(status).Inc()
}

// IncPollAttempt counts one producer invocation of a wait.
func (m *Metrics) IncPollAttempt() {
	if m == nil {
		return
	}
	m.PollAttempts.Inc()
}

// IncPollTimeout counts a wait that gave up.
func (m *Metrics) IncPollTimeout() {
	if m == nil {
		return
	}
	m.PollTimeouts.Inc()
}

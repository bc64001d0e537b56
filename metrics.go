package x11

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors of one connection. Several
// connections registered with the same registerer share collectors.
type metrics struct {
	requests     *prometheus.CounterVec // kind: reply, void
	replies      prometheus.Counter
	errors       *prometheus.CounterVec // attributed: true, false
	events       prometheus.Counter
	bytesWritten prometheus.Counter
	bytesRead    prometheus.Counter
	pending      prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "x11",
			Name:      "requests_total",
			Help:      "Requests encoded, by whether a reply is expected.",
		}, []string{"kind"}),
		replies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "x11",
			Name:      "replies_total",
			Help:      "Reply frames read.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "x11",
			Name:      "protocol_errors_total",
			Help:      "Error frames read, by whether a pending request claimed them.",
		}, []string{"attributed"}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "x11",
			Name:      "events_total",
			Help:      "Event frames read.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "x11",
			Name:      "written_bytes_total",
			Help:      "Bytes flushed to the server.",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "x11",
			Name:      "read_bytes_total",
			Help:      "Bytes read from the server.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "x11",
			Name:      "pending_requests",
			Help:      "Requests awaiting a reply or error.",
		}),
	}
	if reg == nil {
		return m
	}
	m.requests = register(reg, m.requests).(*prometheus.CounterVec)
	m.replies = register(reg, m.replies).(prometheus.Counter)
	m.errors = register(reg, m.errors).(*prometheus.CounterVec)
	m.events = register(reg, m.events).(prometheus.Counter)
	m.bytesWritten = register(reg, m.bytesWritten).(prometheus.Counter)
	m.bytesRead = register(reg, m.bytesRead).(prometheus.Counter)
	m.pending = register(reg, m.pending).(prometheus.Gauge)
	return m
}

// register adds c to reg, or returns the collector already registered under
// the same name.
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		Logger.WithError(err).Warn("metrics not registered")
	}
	return c
}

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -----------------------------------------------------------------------------
// Prometheus counters for the update pipeline. Registered on the registry
// exposed by the dashboard server at /metrics.
// -----------------------------------------------------------------------------

type Metrics struct {
	MessagesReceived prometheus.Counter
	SamplesBuffered  prometheus.Counter
	FlushedImmediate prometheus.Counter
	FlushedNormal    prometheus.Counter
	Skipped          prometheus.Counter
	Deferred         prometheus.Counter
	DroppedMalformed prometheus.Counter
	PendingEntries   *prometheus.GaugeVec
}

// -----------------------------------------------------------------------------

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "can_dashboard",
			Name:      "messages_received_total",
			Help:      "Broker messages drained by the poller.",
		}),
		SamplesBuffered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "can_dashboard",
			Name:      "samples_buffered_total",
			Help:      "Signal samples admitted into the update buffer.",
		}),
		FlushedImmediate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "can_dashboard",
			Name:      "flushed_immediate_total",
			Help:      "Samples flushed through the immediate render path.",
		}),
		FlushedNormal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "can_dashboard",
			Name:      "flushed_normal_total",
			Help:      "Samples flushed on the coalesced render path.",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "can_dashboard",
			Name:      "skipped_total",
			Help:      "Samples absorbed below the skip threshold.",
		}),
		Deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "can_dashboard",
			Name:      "deferred_total",
			Help:      "Samples held back by the inter-update gate.",
		}),
		DroppedMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "can_dashboard",
			Name:      "dropped_malformed_total",
			Help:      "Broker messages dropped as undecodable.",
		}),
		PendingEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "can_dashboard",
			Name:      "pending_entries",
			Help:      "Pending update buffer entries per destination class.",
		}, []string{"class"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.MessagesReceived,
			m.SamplesBuffered,
			m.FlushedImmediate,
			m.FlushedNormal,
			m.Skipped,
			m.Deferred,
			m.DroppedMalformed,
			m.PendingEntries,
		)
	}

	return m
}

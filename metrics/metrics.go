package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	// the go otel metrics sdk also has a prometheus adapter that implements this interface.
	prometheus.Collector
}

type Metrics struct {
	// MessagesCount counts inbound non-bot messages.
	MessagesCount Observer
	// CommandCount counts command invocations by name and result.
	CommandCount Observer
	// AdapterFailures counts failed platform actions by kind.
	AdapterFailures Observer
	// RepeatCount counts record broadcasts.
	RepeatCount Observer
	// WakeCount counts closed sleep sessions.
	WakeCount Observer
	// CommandLatency observes command handling time in seconds by name.
	CommandLatency Observer
}

// New creates the bot's metrics. The collectors are not registered.
func New() *Metrics {
	return &Metrics{
		MessagesCount: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "warden",
					Subsystem: "discord",
					Name:      "messages",
					Help:      "Number of non-bot messages received.",
				},
			),
		),
		CommandCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "warden",
					Subsystem: "commands",
					Name:      "invocations",
					Help:      "Number of command invocations by command and result.",
				},
				[]string{"command", "result"},
			),
		),
		AdapterFailures: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "warden",
					Subsystem: "discord",
					Name:      "failures",
					Help:      "Number of platform actions that failed, by failure kind.",
				},
				[]string{"kind"},
			),
		),
		RepeatCount: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "warden",
					Subsystem: "session",
					Name:      "repeats",
					Help:      "Number of times the saved record was repeated.",
				},
			),
		),
		WakeCount: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "warden",
					Subsystem: "session",
					Name:      "wakes",
					Help:      "Number of sleep sessions ended.",
				},
			),
		),
		CommandLatency: NewPromObserverVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 5, 10},
					Namespace: "warden",
					Subsystem: "commands",
					Name:      "latency",
					Help:      "How long it takes to handle a command in seconds",
				},
				[]string{"command"},
			),
		),
	}
}

func (m Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesCount,
		m.CommandCount,
		m.AdapterFailures,
		m.RepeatCount,
		m.WakeCount,
		m.CommandLatency,
	}
}

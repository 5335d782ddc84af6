package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandMetricsOptions configures the slash command metrics collectors.
type CommandMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Subsystem  string
	Buckets    []float64
}

// CommandMetrics exposes Prometheus collectors for slash command instrumentation.
type CommandMetrics struct {
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	InFlight    prometheus.Gauge
}

// NewCommandMetrics constructs collectors for command handling metrics and registers them with the provided registerer.
func NewCommandMetrics(opts CommandMetricsOptions) (*CommandMetrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "bot"
	}

	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = "commands"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	invocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "invocations_total",
		Help:      "Total number of slash command invocations partitioned by command and outcome.",
	}, []string{"command", "outcome"})

	if err := reg.Register(invocations); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				invocations = existing
			} else {
				return nil, fmt.Errorf("existing invocations collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register invocations collector: %w", err)
		}
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_duration_seconds",
		Help:      "Histogram of slash command handling latencies in seconds partitioned by command and outcome.",
		Buckets:   buckets,
	}, []string{"command", "outcome"})

	if err := reg.Register(duration); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				duration = existing
			} else {
				return nil, fmt.Errorf("existing duration collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register duration collector: %w", err)
		}
	}

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "in_flight",
		Help:      "Current number of slash commands being handled.",
	})

	if err := reg.Register(inFlight); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
				inFlight = existing
			} else {
				return nil, fmt.Errorf("existing inflight collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register inflight collector: %w", err)
		}
	}

	return &CommandMetrics{
		Invocations: invocations,
		Duration:    duration,
		InFlight:    inFlight,
	}, nil
}

// Observe records a completed command invocation.
func (m *CommandMetrics) Observe(command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	labels := prometheus.Labels{
		"command": command,
		"outcome": outcome,
	}

	if m.Invocations != nil {
		m.Invocations.With(labels).Inc()
	}
	if m.Duration != nil {
		m.Duration.With(labels).Observe(elapsed.Seconds())
	}
}

// Track increments the in-flight gauge and returns a function that decrements it.
func (m *CommandMetrics) Track() func() {
	if m == nil || m.InFlight == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}

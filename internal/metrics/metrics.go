// Package metrics registers the core's Prometheus instruments. The decision
// and reapply loops only increment counters here; serving /metrics is wired
// from main and entirely optional.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoflight_frames_processed_total",
		Help: "State frames consumed by the decision loop.",
	})

	CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoflight_commands_dispatched_total",
		Help: "Commands dispatched to the actuation transport, by type.",
	}, []string{"type"})

	CommandsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoflight_commands_suppressed_total",
		Help: "Commands dropped by the dedup policy at flush.",
	})

	DispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoflight_dispatch_failures_total",
		Help: "Command dispatch attempts that returned an error.",
	})

	PhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoflight_phase_transitions_total",
		Help: "Flight phase transitions, by resulting phase.",
	}, []string{"phase"})

	AdvisoryCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoflight_advisory_cycles_total",
		Help: "Completed advisory cycles.",
	})

	AdvisoryParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoflight_advisory_parse_failures_total",
		Help: "Advisor responses with no parseable directive or a malformed one.",
	})
)

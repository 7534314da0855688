// Package phase classifies the discrete flight phase from state frames.
package phase

import (
	"github.com/simwidget/autoflight/pkg/types"
)

// Tuning provides the transition thresholds. Implemented by tuning.Store;
// defined here on the consuming side.
type Tuning interface {
	Get(name string) float64
}

// Clearance reports whether the takeoff-clearance subsystem is inactive or
// has issued clearance. It is an external capability: the machine never
// computes this itself.
type Clearance interface {
	ClearedForTakeoff() bool
}

// AlwaysCleared is the Clearance used when no traffic-control subsystem is
// wired in.
type AlwaysCleared struct{}

func (AlwaysCleared) ClearedForTakeoff() bool { return true }

// Machine classifies (Phase, TakeoffSubPhase) from successive frames.
// Advance moves at most one step per call, so takeoff sub-phases can never
// be skipped or regressed. CRUISE→DESCENT carries hysteresis: the sink has
// to persist across descent_confirm_frames consecutive frames so a single
// turbulence blip cannot flip the phase.
type Machine struct {
	tuning    Tuning
	clearance Clearance
	cruiseAlt func() float64

	sinkFrames int
}

// New creates a Machine. cruiseAlt reports the currently configured cruise
// altitude (feet MSL) and is read on CLIMB→CRUISE evaluation.
func New(t Tuning, c Clearance, cruiseAlt func() float64) *Machine {
	if c == nil {
		c = AlwaysCleared{}
	}
	return &Machine{tuning: t, clearance: c, cruiseAlt: cruiseAlt}
}

// Advance evaluates one frame against the previous classification and
// returns the next one plus whether it changed. An unknown frame field never
// satisfies a transition condition.
func (m *Machine) Advance(f types.StateFrame, prev types.Phase, prevSub types.TakeoffSubPhase) (types.Phase, types.TakeoffSubPhase, bool) {
	p, sub := m.next(f, prev, prevSub)
	return p, sub, p != prev || sub != prevSub
}

func (m *Machine) next(f types.StateFrame, prev types.Phase, prevSub types.TakeoffSubPhase) (types.Phase, types.TakeoffSubPhase) {
	switch prev {
	case types.PhasePreflight:
		if atLeast(f.EngineRPM, m.tuning.Get("taxi_rpm_threshold")) ||
			above(f.Throttle, m.tuning.Get("taxi_throttle_threshold_pct")) {
			return types.PhaseTaxi, types.SubNone
		}

	case types.PhaseTaxi:
		if above(f.GroundSpeed, m.tuning.Get("takeoff_ground_speed_kt")) && m.clearance.ClearedForTakeoff() {
			return types.PhaseTakeoff, types.SubBeforeRoll
		}

	case types.PhaseTakeoff:
		return m.nextTakeoff(f, prevSub)

	case types.PhaseClimb:
		if m.cruiseAlt != nil &&
			atLeast(f.Altitude, m.cruiseAlt()-m.tuning.Get("cruise_capture_margin_ft")) {
			return types.PhaseCruise, types.SubNone
		}

	case types.PhaseCruise:
		if below(f.VerticalSpeed, -m.tuning.Get("descent_vs_threshold_fpm")) {
			m.sinkFrames++
			if m.sinkFrames >= int(m.tuning.Get("descent_confirm_frames")) {
				m.sinkFrames = 0
				return types.PhaseDescent, types.SubNone
			}
		} else {
			m.sinkFrames = 0
		}

	case types.PhaseDescent:
		if below(f.AltitudeAGL, m.tuning.Get("approach_agl_ft")) {
			return types.PhaseApproach, types.SubNone
		}

	case types.PhaseApproach:
		if below(f.AltitudeAGL, m.tuning.Get("landing_agl_ft")) {
			return types.PhaseLanding, types.SubNone
		}

	case types.PhaseLanding:
		if f.OnGround.Known && f.OnGround.V &&
			below(f.GroundSpeed, m.tuning.Get("landing_taxi_speed_kt")) {
			return types.PhaseTaxi, types.SubNone
		}
	}
	return prev, prevSub
}

// nextTakeoff moves the takeoff sub-phase forward by at most one step.
// Ground contact after liftoff ends the attempt back in TAXI; the recorder
// classifies it as a crash or abort from the frame evidence.
func (m *Machine) nextTakeoff(f types.StateFrame, sub types.TakeoffSubPhase) (types.Phase, types.TakeoffSubPhase) {
	if sub >= types.SubLiftoff && f.OnGround.Known && f.OnGround.V {
		return types.PhaseTaxi, types.SubNone
	}

	switch sub {
	case types.SubBeforeRoll:
		if above(f.GroundSpeed, m.tuning.Get("roll_start_speed_kt")) {
			return types.PhaseTakeoff, types.SubRoll
		}
	case types.SubRoll:
		if atLeast(f.IndicatedSpeed, m.tuning.Get("rotation_speed_kt")) {
			return types.PhaseTakeoff, types.SubRotate
		}
	case types.SubRotate:
		if f.OnGround.Known && !f.OnGround.V {
			return types.PhaseTakeoff, types.SubLiftoff
		}
	case types.SubLiftoff:
		if above(f.AltitudeAGL, m.tuning.Get("liftoff_agl_ft")) &&
			above(f.VerticalSpeed, m.tuning.Get("liftoff_climb_rate_fpm")) {
			return types.PhaseTakeoff, types.SubInitialClimb
		}
	case types.SubInitialClimb:
		handoffSpeed := m.tuning.Get("stall_speed_clean_kt") + m.tuning.Get("handoff_margin_kt")
		if atLeast(f.IndicatedSpeed, handoffSpeed) &&
			above(f.AltitudeAGL, m.tuning.Get("handoff_agl_ft")) {
			return types.PhaseTakeoff, types.SubDeparture
		}
	case types.SubDeparture:
		if above(f.AltitudeAGL, m.tuning.Get("departure_exit_agl_ft")) {
			return types.PhaseClimb, types.SubNone
		}
	}
	return types.PhaseTakeoff, sub
}

// Known-value comparisons: an unknown field is "condition not met", never a
// default-true.

func above(v types.Value, threshold float64) bool {
	return v.Known && v.V > threshold
}

func atLeast(v types.Value, threshold float64) bool {
	return v.Known && v.V >= threshold
}

func below(v types.Value, threshold float64) bool {
	return v.Known && v.V < threshold
}

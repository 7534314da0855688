// Package rules holds the phase-specific control laws. Each engine is a pure
// function of the frame, the tuning accessor, and a small amount of
// per-attempt state; engines never perform I/O.
package rules

import (
	"time"

	"github.com/simwidget/autoflight/internal/control"
	"github.com/simwidget/autoflight/pkg/types"
)

// Tuning provides the tunable constants. Implemented by tuning.Store;
// defined here on the consuming side so a store update is observed on the
// very next evaluation.
type Tuning interface {
	Get(name string) float64
}

// Input is everything one evaluation sees.
type Input struct {
	Phase        types.Phase
	SubPhase     types.TakeoffSubPhase
	Frame        types.StateFrame
	PhaseChanged bool
	Now          time.Time
}

// Engine produces the control commands for one decision tick.
type Engine interface {
	Evaluate(in Input) []control.Command
}

// Registry maps each phase to its engine variant.
type Registry struct {
	engines map[types.Phase]Engine
}

// NewRegistry builds the phase→engine lookup table. cruiseAlt reports the
// configured cruise altitude in feet MSL.
func NewRegistry(t Tuning, cruiseAlt func() float64) *Registry {
	ground := NewGround(t)
	takeoff := NewTakeoff(t, cruiseAlt)
	cruise := NewCruise(t, cruiseAlt)
	approach := NewApproach(t)

	return &Registry{engines: map[types.Phase]Engine{
		types.PhasePreflight: ground,
		types.PhaseTaxi:      ground,
		types.PhaseTakeoff:   takeoff,
		types.PhaseDeparture: cruise,
		types.PhaseClimb:     cruise,
		types.PhaseCruise:    cruise,
		types.PhaseDescent:   cruise,
		types.PhaseApproach:  approach,
		types.PhaseLanding:   approach,
	}}
}

// ForPhase returns the engine for p, or nil if p has no engine.
func (r *Registry) ForPhase(p types.Phase) Engine {
	return r.engines[p]
}

// wingsLevel returns an aileron correction opposing the current bank, or
// false when bank is unknown.
func wingsLevel(t Tuning, f types.StateFrame) (control.Command, bool) {
	if !f.Bank.Known {
		return control.Command{}, false
	}
	gain := t.Get("wings_level_gain")
	return control.Axis(control.CmdAileron, -gain*f.Bank.V, "wings level"), true
}

// groundSteer returns a rudder correction toward target heading, or false
// when the current heading is unknown.
func groundSteer(t Tuning, f types.StateFrame, target float64) (control.Command, bool) {
	if !f.Heading.Known {
		return control.Command{}, false
	}
	err := headingError(f.Heading.V, target)
	gain := t.Get("ground_steering_gain")
	return control.Axis(control.CmdRudder, gain*err, "runway heading"), true
}

// headingError returns the signed shortest-path error from current to target
// in degrees, in (-180, 180].
func headingError(current, target float64) float64 {
	err := target - current
	for err > 180 {
		err -= 360
	}
	for err <= -180 {
		err += 360
	}
	return err
}

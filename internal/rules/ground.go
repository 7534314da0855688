package rules

import (
	"github.com/simwidget/autoflight/internal/control"
	"github.com/simwidget/autoflight/pkg/types"
)

// Ground covers PREFLIGHT and TAXI. During PREFLIGHT it holds the aircraft
// parked; during TAXI the surfaces stay under external control so the crew
// can line up, and the core takes over once the takeoff roll starts.
type Ground struct {
	tuning Tuning
}

// NewGround creates the ground engine.
func NewGround(t Tuning) *Ground {
	return &Ground{tuning: t}
}

// Evaluate implements Engine.
func (e *Ground) Evaluate(in Input) []control.Command {
	if in.Phase != types.PhasePreflight {
		return nil
	}
	return []control.Command{
		control.Toggle(control.CmdParkingBrake, true, "hold position"),
		control.Percent(control.CmdThrottle, 0, "idle"),
	}
}

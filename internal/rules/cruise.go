package rules

import (
	"github.com/simwidget/autoflight/internal/control"
	"github.com/simwidget/autoflight/pkg/types"
)

// Cruise covers DEPARTURE, CLIMB, CRUISE, and DESCENT: autopilot setpoint
// holding at the configured cruise altitude. The surfaces themselves stay
// with the autopilot; this engine only keeps the targets asserted.
type Cruise struct {
	tuning    Tuning
	cruiseAlt func() float64
}

// NewCruise creates the cruise engine.
func NewCruise(t Tuning, cruiseAlt func() float64) *Cruise {
	return &Cruise{tuning: t, cruiseAlt: cruiseAlt}
}

// Evaluate implements Engine.
func (e *Cruise) Evaluate(in Input) []control.Command {
	f := in.Frame
	var cmds []control.Command

	// Re-engage the autopilot only when its state is positively known off;
	// an unknown flag must not trigger a command.
	if f.Autopilot.Master.Known && !f.Autopilot.Master.V {
		cmds = append(cmds, control.Toggle(control.CmdAPMaster, true, "keep autopilot engaged"))
	}

	if e.cruiseAlt != nil {
		cmds = append(cmds, control.Target(control.CmdAPAltitudeTarget, e.cruiseAlt(), "cruise altitude"))
		if f.Autopilot.AltitudeHold.Known && !f.Autopilot.AltitudeHold.V {
			cmds = append(cmds, control.Toggle(control.CmdAPAltitudeHold, true, "altitude hold"))
		}
	}

	// Gear up once climbing away; only on positive evidence it is down.
	if in.Phase == types.PhaseClimb &&
		f.GearDown.Known && f.GearDown.V &&
		f.OnGround.Known && !f.OnGround.V {
		cmds = append(cmds, control.Toggle(control.CmdGear, false, "gear up"))
	}

	return cmds
}

package rules

import (
	"github.com/simwidget/autoflight/internal/control"
	"github.com/simwidget/autoflight/pkg/types"
)

// Approach covers APPROACH and LANDING: staged flap extension by AGL, gear
// down, and the approach speed target. On LANDING it closes the throttle.
type Approach struct {
	tuning Tuning
}

// NewApproach creates the approach engine.
func NewApproach(t Tuning) *Approach {
	return &Approach{tuning: t}
}

// Evaluate implements Engine.
func (e *Approach) Evaluate(in Input) []control.Command {
	f := in.Frame
	var cmds []control.Command

	if f.GearDown.Known && !f.GearDown.V {
		cmds = append(cmds, control.Toggle(control.CmdGear, true, "gear down"))
	}
	cmds = append(cmds, control.Target(control.CmdAPSpeedTarget, e.tuning.Get("approach_speed_kt"), "approach speed"))

	if stage, ok := e.flapStage(f); ok {
		cmds = append(cmds, control.Target(control.CmdFlaps, float64(stage), "approach flaps"))
	}

	if in.Phase == types.PhaseLanding {
		cmds = append(cmds, control.Percent(control.CmdThrottle, 0, "throttle idle"))
	}
	return cmds
}

// flapStage maps AGL to a flap detent; unknown AGL commands nothing.
func (e *Approach) flapStage(f types.StateFrame) (int, bool) {
	if !f.AltitudeAGL.Known {
		return 0, false
	}
	agl := f.AltitudeAGL.V
	switch {
	case agl < e.tuning.Get("approach_flaps3_agl_ft"):
		return 3, true
	case agl < e.tuning.Get("approach_flaps2_agl_ft"):
		return 2, true
	case agl < e.tuning.Get("approach_flaps1_agl_ft"):
		return 1, true
	}
	return 0, false
}

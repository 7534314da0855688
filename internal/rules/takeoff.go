package rules

import (
	"time"

	"github.com/simwidget/autoflight/internal/control"
	"github.com/simwidget/autoflight/pkg/types"
)

// Takeoff flies the takeoff roll through autopilot handoff. Per-attempt
// state (runway heading, rotation start time, handoff latch) resets when a
// new attempt begins, i.e. on the phase change into BEFORE_ROLL.
type Takeoff struct {
	tuning    Tuning
	cruiseAlt func() float64

	runwayHeading    float64
	runwayHeadingSet bool
	rotateStart      time.Time
	handedOff        bool
}

// NewTakeoff creates the takeoff engine.
func NewTakeoff(t Tuning, cruiseAlt func() float64) *Takeoff {
	return &Takeoff{tuning: t, cruiseAlt: cruiseAlt}
}

// Evaluate implements Engine.
func (e *Takeoff) Evaluate(in Input) []control.Command {
	if in.PhaseChanged && in.SubPhase == types.SubBeforeRoll {
		e.reset()
	}

	switch in.SubPhase {
	case types.SubBeforeRoll:
		return e.beforeRoll(in)
	case types.SubRoll:
		return e.roll(in)
	case types.SubRotate:
		return e.rotate(in)
	case types.SubLiftoff:
		return e.liftoff(in)
	case types.SubInitialClimb:
		return e.initialClimb(in)
	case types.SubDeparture:
		return e.departure(in)
	}
	return nil
}

func (e *Takeoff) reset() {
	e.runwayHeading = 0
	e.runwayHeadingSet = false
	e.rotateStart = time.Time{}
	e.handedOff = false
}

// captureRunwayHeading latches the first known heading of the attempt as the
// runway heading for ground steering and the departure heading bug.
func (e *Takeoff) captureRunwayHeading(f types.StateFrame) {
	if !e.runwayHeadingSet && f.Heading.Known {
		e.runwayHeading = f.Heading.V
		e.runwayHeadingSet = true
	}
}

func (e *Takeoff) beforeRoll(in Input) []control.Command {
	e.captureRunwayHeading(in.Frame)

	cmds := []control.Command{
		control.Axis(control.CmdElevator, 0, "center controls"),
		control.Axis(control.CmdAileron, 0, "center controls"),
		control.Percent(control.CmdMixture, 100, "mixture rich"),
		control.Toggle(control.CmdParkingBrake, false, "release parking brake"),
	}
	if e.runwayHeadingSet {
		if cmd, ok := groundSteer(e.tuning, in.Frame, e.runwayHeading); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (e *Takeoff) roll(in Input) []control.Command {
	e.captureRunwayHeading(in.Frame)

	cmds := []control.Command{
		control.Axis(control.CmdElevator, 0, "neutral elevator"),
		control.Percent(control.CmdThrottle, 100, "full throttle"),
	}
	if cmd, ok := wingsLevel(e.tuning, in.Frame); ok {
		cmds = append(cmds, cmd)
	}
	if e.runwayHeadingSet {
		if cmd, ok := groundSteer(e.tuning, in.Frame, e.runwayHeading); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// rotate ramps the elevator from 0 toward the configured target at the
// configured rate per second, holding wings level.
func (e *Takeoff) rotate(in Input) []control.Command {
	if e.rotateStart.IsZero() {
		e.rotateStart = in.Now
	}

	target := e.tuning.Get("rotate_elevator_target")
	rate := e.tuning.Get("rotate_elevator_rate")
	elapsed := in.Now.Sub(e.rotateStart).Seconds()

	elev := -rate * elapsed
	if elev < target {
		elev = target
	}

	cmds := []control.Command{
		control.Axis(control.CmdElevator, elev, "rotation ramp"),
		control.Percent(control.CmdThrottle, 100, "full throttle"),
	}
	if cmd, ok := wingsLevel(e.tuning, in.Frame); ok {
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (e *Takeoff) liftoff(in Input) []control.Command {
	cmds := []control.Command{
		control.Axis(control.CmdElevator, e.tuning.Get("liftoff_elevator"), "initial climb pitch"),
		control.Percent(control.CmdThrottle, 100, "full throttle"),
	}
	if cmd, ok := wingsLevel(e.tuning, in.Frame); ok {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// initialClimb holds climb elevator hand-flown until the phase machine
// advances into DEPARTURE; the handoff itself happens on DEPARTURE entry.
func (e *Takeoff) initialClimb(in Input) []control.Command {
	cmds := []control.Command{
		control.Axis(control.CmdElevator, e.tuning.Get("initial_climb_elevator"), "climb pitch"),
	}
	if cmd, ok := wingsLevel(e.tuning, in.Frame); ok {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// departure performs the autopilot handoff once on entry, then keeps the
// departure targets asserted. The axis releases are explicit zeros so the
// held registry drops them and the reapply loop stops reasserting surface
// input against the autopilot.
func (e *Takeoff) departure(in Input) []control.Command {
	var cmds []control.Command
	if !e.handedOff {
		e.handedOff = true
		cmds = append(cmds,
			control.Toggle(control.CmdAPMaster, true, "autopilot handoff"),
			control.Toggle(control.CmdAPHeadingHold, true, "autopilot handoff"),
			control.Toggle(control.CmdAPVSHold, true, "autopilot handoff"),
			control.Axis(control.CmdElevator, 0, "release to autopilot"),
			control.Axis(control.CmdAileron, 0, "release to autopilot"),
		)
		if e.runwayHeadingSet {
			cmds = append(cmds, control.Target(control.CmdAPHeadingBug, e.runwayHeading, "runway heading"))
		}
	}
	cmds = append(cmds,
		control.Target(control.CmdFlaps, 0, "retract flaps"),
		control.Target(control.CmdAPSpeedTarget, e.tuning.Get("departure_target_speed_kt"), "departure speed"),
		control.Target(control.CmdAPVSTarget, e.tuning.Get("departure_climb_rate_fpm"), "departure climb rate"),
	)
	if e.cruiseAlt != nil {
		cmds = append(cmds, control.Target(control.CmdAPAltitudeTarget, e.cruiseAlt(), "cruise altitude"))
	}
	return cmds
}

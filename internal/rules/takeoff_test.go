package rules

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simwidget/autoflight/internal/control"
	"github.com/simwidget/autoflight/internal/tuning"
	"github.com/simwidget/autoflight/pkg/types"
)

func testTuning(t *testing.T) *tuning.Store {
	t.Helper()
	return tuning.NewStore(filepath.Join(t.TempDir(), "tuning.json"))
}

func cruiseAt(alt float64) func() float64 {
	return func() float64 { return alt }
}

// byType indexes commands for assertion; a missing type reports ok=false.
func byType(cmds []control.Command) map[control.CommandType]control.Command {
	out := make(map[control.CommandType]control.Command, len(cmds))
	for _, c := range cmds {
		out[c.Type] = c
	}
	return out
}

func rollFrame() types.StateFrame {
	return types.StateFrame{
		Heading:        types.Float(270),
		Bank:           types.Float(2),
		GroundSpeed:    types.Float(10),
		IndicatedSpeed: types.Float(20),
		OnGround:       types.Bool(true),
	}
}

func TestBeforeRollCentersControlsAndPreparesAircraft(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))

	cmds := e.Evaluate(Input{
		Phase:        types.PhaseTakeoff,
		SubPhase:     types.SubBeforeRoll,
		Frame:        rollFrame(),
		PhaseChanged: true,
		Now:          time.Now(),
	})
	m := byType(cmds)

	assert.Equal(t, 0.0, m[control.CmdElevator].Value)
	assert.Equal(t, 0.0, m[control.CmdAileron].Value)
	assert.Equal(t, 100.0, m[control.CmdMixture].Value)
	assert.Equal(t, 0.0, m[control.CmdParkingBrake].Value)
	// Aligned with the runway: no steering correction needed.
	assert.Equal(t, 0.0, m[control.CmdRudder].Value)
}

func TestRollHoldsNeutralElevatorFullThrottle(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))

	f := rollFrame()
	f.Heading = types.Float(265) // 5 degrees left of the captured runway heading

	e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubBeforeRoll, Frame: rollFrame(), PhaseChanged: true, Now: time.Now()})
	cmds := e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRoll, Frame: f, Now: time.Now()})
	m := byType(cmds)

	assert.Equal(t, 0.0, m[control.CmdElevator].Value)
	assert.Equal(t, 100.0, m[control.CmdThrottle].Value)
	// Right rudder to correct back toward 270 (default gain 2 x 5 degrees).
	assert.InDelta(t, 10.0, m[control.CmdRudder].Value, 1e-9)
	// Wings-level opposes the 2-degree right bank (default gain 1.5).
	assert.InDelta(t, -3.0, m[control.CmdAileron].Value, 1e-9)
}

func TestRotateRampsElevatorTowardTarget(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))
	start := time.Now()

	f := rollFrame()
	f.IndicatedSpeed = types.Float(56)

	// Ramp begins at 0 and moves at the configured 2 units/sec toward -8.
	m := byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start}))
	assert.InDelta(t, 0.0, m[control.CmdElevator].Value, 1e-9)

	m = byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start.Add(time.Second)}))
	assert.InDelta(t, -2.0, m[control.CmdElevator].Value, 1e-9)

	m = byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start.Add(3 * time.Second)}))
	assert.InDelta(t, -6.0, m[control.CmdElevator].Value, 1e-9)

	// Clamped at the target, never past it.
	m = byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start.Add(10 * time.Second)}))
	assert.InDelta(t, -8.0, m[control.CmdElevator].Value, 1e-9)
}

func TestRotateRateReadThroughTuningAccessor(t *testing.T) {
	store := testTuning(t)
	e := NewTakeoff(store, cruiseAt(5000))
	start := time.Now()
	f := rollFrame()

	e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start})

	// An advisory update lands between ticks and is observed immediately.
	store.BulkSet(map[string]float64{"rotate_elevator_rate": 4})

	m := byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start.Add(time.Second)}))
	assert.InDelta(t, -4.0, m[control.CmdElevator].Value, 1e-9)
}

func TestLiftoffHoldsClimbElevator(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))

	f := rollFrame()
	f.OnGround = types.Bool(false)
	m := byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubLiftoff, Frame: f, Now: time.Now()}))

	assert.Equal(t, -6.0, m[control.CmdElevator].Value)
	assert.Equal(t, 100.0, m[control.CmdThrottle].Value)
}

func TestInitialClimbHoldsClimbPitchHandFlown(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))

	f := types.StateFrame{
		IndicatedSpeed: types.Float(65),
		AltitudeAGL:    types.Float(350),
		Bank:           types.Float(0),
	}
	m := byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubInitialClimb, Frame: f, Now: time.Now()}))

	assert.Equal(t, -5.0, m[control.CmdElevator].Value)
	_, hasAP := m[control.CmdAPMaster]
	assert.False(t, hasAP, "handoff belongs to DEPARTURE entry, not INITIAL_CLIMB")
}

func TestDepartureEntryEngagesAutopilotAndReleasesAxes(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))

	// Capture runway heading first.
	e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubBeforeRoll, Frame: rollFrame(), PhaseChanged: true, Now: time.Now()})

	f := types.StateFrame{
		IndicatedSpeed: types.Float(65),
		AltitudeAGL:    types.Float(350),
	}
	cmds := e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubDeparture, Frame: f, Now: time.Now()})
	m := byType(cmds)

	assert.Equal(t, 1.0, m[control.CmdAPMaster].Value)
	assert.Equal(t, 1.0, m[control.CmdAPHeadingHold].Value)
	assert.Equal(t, 1.0, m[control.CmdAPVSHold].Value)
	assert.Equal(t, 700.0, m[control.CmdAPVSTarget].Value)
	assert.Equal(t, 270.0, m[control.CmdAPHeadingBug].Value)
	// Manual axes released to the autopilot with explicit zeros.
	assert.Equal(t, 0.0, m[control.CmdElevator].Value)
	assert.Equal(t, 0.0, m[control.CmdAileron].Value)

	// Later ticks only reassert the targets: no engage toggles, no manual axes.
	later := byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubDeparture, Frame: f, Now: time.Now()}))
	_, hasMaster := later[control.CmdAPMaster]
	assert.False(t, hasMaster)
	_, hasElevator := later[control.CmdElevator]
	assert.False(t, hasElevator)
	assert.Equal(t, 700.0, later[control.CmdAPVSTarget].Value)
}

func TestDepartureRetractsFlapsAndSetsTargets(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(6500))

	cmds := e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubDeparture, Frame: types.StateFrame{}, Now: time.Now()})
	m := byType(cmds)

	assert.Equal(t, 0.0, m[control.CmdFlaps].Value)
	assert.Equal(t, 75.0, m[control.CmdAPSpeedTarget].Value)
	assert.Equal(t, 700.0, m[control.CmdAPVSTarget].Value)
	assert.Equal(t, 6500.0, m[control.CmdAPAltitudeTarget].Value)
}

func TestNewAttemptResetsPerAttemptState(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))
	start := time.Now()
	f := rollFrame()

	// First attempt: ramp for 2 seconds.
	e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start})
	m := byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start.Add(2 * time.Second)}))
	require.InDelta(t, -4.0, m[control.CmdElevator].Value, 1e-9)

	// New attempt begins: the ramp starts over from zero.
	e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubBeforeRoll, Frame: f, PhaseChanged: true, Now: start.Add(time.Minute)})
	m = byType(e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRotate, Frame: f, Now: start.Add(time.Minute + time.Second)}))
	assert.InDelta(t, 0.0, m[control.CmdElevator].Value, 1e-9)
}

func TestUnknownBankSuppressesAileronCommand(t *testing.T) {
	e := NewTakeoff(testTuning(t), cruiseAt(5000))

	f := rollFrame()
	f.Bank = types.Value{} // unknown
	cmds := e.Evaluate(Input{Phase: types.PhaseTakeoff, SubPhase: types.SubRoll, Frame: f, Now: time.Now()})

	_, hasAileron := byType(cmds)[control.CmdAileron]
	assert.False(t, hasAileron, "unknown bank must not produce an aileron command")
}

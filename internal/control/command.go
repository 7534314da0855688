package control

// CommandType identifies one actuation output.
type CommandType int

const (
	CmdElevator CommandType = iota
	CmdAileron
	CmdRudder
	CmdThrottle
	CmdMixture
	CmdFlaps
	CmdGear
	CmdParkingBrake
	CmdAPMaster
	CmdAPHeadingHold
	CmdAPAltitudeHold
	CmdAPVSHold
	CmdAPSpeedHold
	CmdAPHeadingBug
	CmdAPAltitudeTarget
	CmdAPVSTarget
	CmdAPSpeedTarget
)

var commandNames = map[CommandType]string{
	CmdElevator:         "elevator",
	CmdAileron:          "aileron",
	CmdRudder:           "rudder",
	CmdThrottle:         "throttle",
	CmdMixture:          "mixture",
	CmdFlaps:            "flaps",
	CmdGear:             "gear",
	CmdParkingBrake:     "parking_brake",
	CmdAPMaster:         "ap_master",
	CmdAPHeadingHold:    "ap_heading_hold",
	CmdAPAltitudeHold:   "ap_altitude_hold",
	CmdAPVSHold:         "ap_vs_hold",
	CmdAPSpeedHold:      "ap_speed_hold",
	CmdAPHeadingBug:     "ap_heading_bug",
	CmdAPAltitudeTarget: "ap_altitude_target",
	CmdAPVSTarget:       "ap_vs_target",
	CmdAPSpeedTarget:    "ap_speed_target",
}

func (t CommandType) String() string {
	if s, ok := commandNames[t]; ok {
		return s
	}
	return "unknown"
}

// IsAxis reports whether t is a held analog control surface: one the core
// keeps reasserting through the reapply loop until released with an exact 0.
func (t CommandType) IsAxis() bool {
	switch t {
	case CmdElevator, CmdAileron, CmdRudder:
		return true
	}
	return false
}

// IsDiscrete reports whether t is an on/off or detent output, dispatched on
// every value change with no epsilon.
func (t CommandType) IsDiscrete() bool {
	switch t {
	case CmdFlaps, CmdGear, CmdParkingBrake,
		CmdAPMaster, CmdAPHeadingHold, CmdAPAltitudeHold,
		CmdAPVSHold, CmdAPSpeedHold:
		return true
	}
	return false
}

// Epsilon is the minimum change a continuous command must show against the
// last dispatched value before it is re-sent. The values are chosen per axis
// scale: half a normalized unit on control surfaces is below anything the
// simulator renders, one percent of throttle travel likewise, and the
// autopilot targets use the smallest increment their sim controls accept.
// Exact-zero axis release bypasses the epsilon entirely (see Queue.Flush).
func (t CommandType) Epsilon() float64 {
	switch t {
	case CmdElevator, CmdAileron, CmdRudder:
		return 0.5
	case CmdThrottle, CmdMixture:
		return 1.0
	case CmdAPHeadingBug:
		return 1.0
	case CmdAPAltitudeTarget:
		return 25.0
	case CmdAPVSTarget:
		return 25.0
	case CmdAPSpeedTarget:
		return 1.0
	}
	return 0
}

// Command is one control output produced by a rule engine.
type Command struct {
	Type   CommandType
	Value  float64
	Reason string
}

// Axis builds a control-surface command, clamping to the normalized
// -100..+100 scale.
func Axis(t CommandType, v float64, reason string) Command {
	if v < -100 {
		v = -100
	}
	if v > 100 {
		v = 100
	}
	return Command{Type: t, Value: v, Reason: reason}
}

// Percent builds a 0..100% command (throttle, mixture).
func Percent(t CommandType, v float64, reason string) Command {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return Command{Type: t, Value: v, Reason: reason}
}

// Toggle builds an on/off command encoded as 1/0.
func Toggle(t CommandType, on bool, reason string) Command {
	v := 0.0
	if on {
		v = 1.0
	}
	return Command{Type: t, Value: v, Reason: reason}
}

// Target builds an autopilot target-value command (heading bug, altitude,
// vertical speed, speed).
func Target(t CommandType, v float64, reason string) Command {
	return Command{Type: t, Value: v, Reason: reason}
}

// Dispatcher sends one command to the actuation transport.
// Implemented by the sim link; defined here on the consuming side.
type Dispatcher interface {
	Dispatch(t CommandType, value float64) error
}

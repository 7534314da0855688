package types

// Value is an optional float64 frame field. A field the simulator did not
// report has Known=false and must never be treated as zero.
type Value struct {
	V     float64
	Known bool
}

// Float wraps a known float64 value.
func Float(v float64) Value {
	return Value{V: v, Known: true}
}

// Flag is an optional boolean frame field.
type Flag struct {
	V     bool
	Known bool
}

// Bool wraps a known boolean value.
func Bool(v bool) Flag {
	return Flag{V: v, Known: true}
}

// AutopilotState holds the six autopilot hold flags reported by the simulator.
type AutopilotState struct {
	Master       Flag
	HeadingHold  Flag
	AltitudeHold Flag
	VSHold       Flag
	SpeedHold    Flag
	ApproachHold Flag
}

// StateFrame is one immutable snapshot of vehicle state, produced by the sim
// link at roughly 30Hz. Fields the simulator did not report are left unknown.
type StateFrame struct {
	Altitude       Value          // feet MSL
	AltitudeAGL    Value          // feet above ground
	IndicatedSpeed Value          // knots
	GroundSpeed    Value          // knots
	VerticalSpeed  Value          // feet/minute
	Heading        Value          // degrees magnetic
	Pitch          Value          // degrees, positive nose up
	Bank           Value          // degrees, positive right wing down
	OnGround       Flag
	EngineRPM      Value
	Throttle       Value          // percent 0..100
	FlapIndex      Value          // detent index
	GearDown       Flag
	Autopilot      AutopilotState
	Latitude       Value
	Longitude      Value
}

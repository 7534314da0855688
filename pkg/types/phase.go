package types

// Phase is the discrete flight phase classified from state frames.
type Phase int

const (
	PhasePreflight Phase = iota
	PhaseTaxi
	PhaseTakeoff
	PhaseDeparture
	PhaseClimb
	PhaseCruise
	PhaseDescent
	PhaseApproach
	PhaseLanding
)

var phaseNames = map[Phase]string{
	PhasePreflight: "PREFLIGHT",
	PhaseTaxi:      "TAXI",
	PhaseTakeoff:   "TAKEOFF",
	PhaseDeparture: "DEPARTURE",
	PhaseClimb:     "CLIMB",
	PhaseCruise:    "CRUISE",
	PhaseDescent:   "DESCENT",
	PhaseApproach:  "APPROACH",
	PhaseLanding:   "LANDING",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "UNKNOWN"
}

// TakeoffSubPhase sequences the takeoff roll. Valid only while Phase is
// PhaseTakeoff. Transitions are monotonic within one takeoff attempt: a
// sub-phase is never skipped and never regresses.
type TakeoffSubPhase int

const (
	SubNone TakeoffSubPhase = iota
	SubBeforeRoll
	SubRoll
	SubRotate
	SubLiftoff
	SubInitialClimb
	SubDeparture
)

var subPhaseNames = map[TakeoffSubPhase]string{
	SubNone:         "NONE",
	SubBeforeRoll:   "BEFORE_ROLL",
	SubRoll:         "ROLL",
	SubRotate:       "ROTATE",
	SubLiftoff:      "LIFTOFF",
	SubInitialClimb: "INITIAL_CLIMB",
	SubDeparture:    "DEPARTURE",
}

func (s TakeoffSubPhase) String() string {
	if n, ok := subPhaseNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// Next returns the sub-phase that follows s, or s itself if s is terminal.
func (s TakeoffSubPhase) Next() TakeoffSubPhase {
	if s >= SubDeparture {
		return s
	}
	return s + 1
}

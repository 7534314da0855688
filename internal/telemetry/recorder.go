// Package telemetry records per-attempt takeoff telemetry and keeps the
// durable attempt history.
package telemetry

import (
	"time"

	"github.com/google/uuid"

	"github.com/simwidget/autoflight/pkg/types"
)

// Outcome is the terminal result of a takeoff attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeAborted Outcome = "aborted"
	OutcomeCrashed Outcome = "crashed"
)

// Sample is one fixed-interval snapshot during an attempt. Unknown frame
// fields are omitted rather than recorded as zero.
type Sample struct {
	At            time.Time `json:"at"`
	IndicatedKt   *float64  `json:"indicated_kt,omitempty"`
	AGLFt         *float64  `json:"agl_ft,omitempty"`
	VerticalFpm   *float64  `json:"vertical_fpm,omitempty"`
	PitchDeg      *float64  `json:"pitch_deg,omitempty"`
	BankDeg       *float64  `json:"bank_deg,omitempty"`
	GroundSpeedKt *float64  `json:"ground_speed_kt,omitempty"`
}

// Extremes holds min/max observed over a full attempt.
type Extremes struct {
	Max *float64 `json:"max,omitempty"`
	Min *float64 `json:"min,omitempty"`
}

func (e *Extremes) observe(v float64) {
	if e.Max == nil || v > *e.Max {
		m := v
		e.Max = &m
	}
	if e.Min == nil || v < *e.Min {
		m := v
		e.Min = &m
	}
}

// Record is one finalized takeoff attempt.
type Record struct {
	ID               string    `json:"id"`
	Started          time.Time `json:"started"`
	Ended            time.Time `json:"ended"`
	Outcome          Outcome   `json:"outcome"`
	SubPhasesReached []string  `json:"sub_phases_reached"`
	RotateSpeedKt    *float64  `json:"rotate_speed_kt,omitempty"`
	LiftoffSpeedKt   *float64  `json:"liftoff_speed_kt,omitempty"`
	MaxAltGainFt     *float64  `json:"max_alt_gain_ft,omitempty"`
	Bank             Extremes  `json:"bank_deg"`
	Pitch            Extremes  `json:"pitch_deg"`
	Vertical         Extremes  `json:"vertical_fpm"`
	Elevator         Extremes  `json:"elevator"`
	Aileron          Extremes  `json:"aileron"`
	Samples          []Sample  `json:"samples"`
}

// Recorder accumulates one attempt at a time. It is written only from the
// decision loop and needs no locking.
type Recorder struct {
	sampleInterval time.Duration

	active     bool
	record     Record
	lastSub    types.TakeoffSubPhase
	lastSample time.Time
	baseAlt    *float64
}

// NewRecorder creates a Recorder sampling at the given fixed cadence.
func NewRecorder(sampleInterval time.Duration) *Recorder {
	if sampleInterval <= 0 {
		sampleInterval = 2 * time.Second
	}
	return &Recorder{sampleInterval: sampleInterval}
}

// Active reports whether an attempt is being recorded.
func (r *Recorder) Active() bool { return r.active }

// Start begins a new attempt, discarding any unfinalized one.
func (r *Recorder) Start(now time.Time) {
	r.active = true
	r.record = Record{ID: uuid.NewString(), Started: now}
	r.lastSub = types.SubNone
	r.lastSample = time.Time{}
	r.baseAlt = nil
}

// Observe processes one decision tick: tracks sub-phase entries with their
// entry speeds, updates extrema from every frame, and appends a snapshot
// once per sample interval.
func (r *Recorder) Observe(f types.StateFrame, sub types.TakeoffSubPhase, now time.Time) {
	if !r.active {
		return
	}

	if sub != r.lastSub && sub != types.SubNone {
		r.record.SubPhasesReached = append(r.record.SubPhasesReached, sub.String())
		if f.IndicatedSpeed.Known {
			v := f.IndicatedSpeed.V
			switch sub {
			case types.SubRotate:
				r.record.RotateSpeedKt = &v
			case types.SubLiftoff:
				r.record.LiftoffSpeedKt = &v
			}
		}
		r.lastSub = sub
	}

	if f.Altitude.Known {
		if r.baseAlt == nil {
			a := f.Altitude.V
			r.baseAlt = &a
		}
		gain := f.Altitude.V - *r.baseAlt
		if r.record.MaxAltGainFt == nil || gain > *r.record.MaxAltGainFt {
			r.record.MaxAltGainFt = &gain
		}
	}
	if f.Bank.Known {
		r.record.Bank.observe(f.Bank.V)
	}
	if f.Pitch.Known {
		r.record.Pitch.observe(f.Pitch.V)
	}
	if f.VerticalSpeed.Known {
		r.record.Vertical.observe(f.VerticalSpeed.V)
	}

	if r.lastSample.IsZero() || now.Sub(r.lastSample) >= r.sampleInterval {
		r.record.Samples = append(r.record.Samples, makeSample(f, now))
		r.lastSample = now
	}
}

// ObserveSurface tracks control-surface deflection extrema for the attempt.
func (r *Recorder) ObserveSurface(elevator, aileron *float64) {
	if !r.active {
		return
	}
	if elevator != nil {
		r.record.Elevator.observe(*elevator)
	}
	if aileron != nil {
		r.record.Aileron.observe(*aileron)
	}
}

// Finalize closes the attempt with the given outcome and returns the record.
func (r *Recorder) Finalize(outcome Outcome, now time.Time) Record {
	r.record.Outcome = outcome
	r.record.Ended = now
	r.active = false
	return r.record
}

func makeSample(f types.StateFrame, now time.Time) Sample {
	s := Sample{At: now}
	s.IndicatedKt = known(f.IndicatedSpeed)
	s.AGLFt = known(f.AltitudeAGL)
	s.VerticalFpm = known(f.VerticalSpeed)
	s.PitchDeg = known(f.Pitch)
	s.BankDeg = known(f.Bank)
	s.GroundSpeedKt = known(f.GroundSpeed)
	return s
}

func known(v types.Value) *float64 {
	if !v.Known {
		return nil
	}
	x := v.V
	return &x
}

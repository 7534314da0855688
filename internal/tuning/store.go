package tuning

import (
	"log"
	"sync"

	"github.com/simwidget/autoflight/internal/storage"
)

// Param describes one tunable parameter: its default and the physical bounds
// an override is clamped to.
type Param struct {
	Name        string
	Description string
	Default     float64
	Min         float64
	Max         float64
}

// ParamView is a read-only snapshot of a parameter and its current value,
// used when assembling advisory context.
type ParamView struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Default     float64 `json:"default"`
	Current     float64 `json:"current"`
	Overridden  bool    `json:"overridden"`
}

// Defaults is the full tunable-parameter table. Engines and the phase machine
// read these through Store.Get so advisory updates take effect on the very
// next evaluation.
var Defaults = []Param{
	{"taxi_rpm_threshold", "Engine RPM above which PREFLIGHT becomes TAXI.", 500, 0, 3000},
	{"taxi_throttle_threshold_pct", "Throttle percent above which PREFLIGHT becomes TAXI.", 10, 0, 100},
	{"takeoff_ground_speed_kt", "Ground speed above which TAXI becomes TAKEOFF (with clearance).", 25, 5, 60},
	{"roll_start_speed_kt", "Ground speed above which BEFORE_ROLL becomes ROLL.", 3, 0, 20},
	{"rotation_speed_kt", "Vr: indicated airspeed at which rotation begins.", 55, 40, 90},
	{"liftoff_agl_ft", "AGL above which LIFTOFF becomes INITIAL_CLIMB.", 200, 50, 500},
	{"liftoff_climb_rate_fpm", "Vertical speed required for LIFTOFF to become INITIAL_CLIMB.", 100, 0, 500},
	{"stall_speed_clean_kt", "Vs1: clean-configuration stall speed.", 48, 35, 80},
	{"handoff_margin_kt", "Airspeed margin over Vs1 required for autopilot handoff.", 10, 0, 30},
	{"handoff_agl_ft", "AGL required for autopilot handoff during INITIAL_CLIMB.", 300, 100, 1000},
	{"departure_exit_agl_ft", "AGL at which DEPARTURE exits TAKEOFF into CLIMB.", 500, 200, 2000},
	{"rotate_elevator_target", "Elevator deflection the rotation ramp approaches (normalized -100..0).", -8, -30, 0},
	{"rotate_elevator_rate", "Elevator ramp rate in normalized units per second during ROTATE.", 2, 0.5, 10},
	{"liftoff_elevator", "Elevator held during LIFTOFF (normalized -100..0).", -6, -30, 0},
	{"initial_climb_elevator", "Elevator held during INITIAL_CLIMB until handoff (normalized -100..0).", -5, -30, 0},
	{"departure_climb_rate_fpm", "Autopilot vertical-speed target set during DEPARTURE.", 700, 200, 1500},
	{"departure_target_speed_kt", "Autopilot speed target set during DEPARTURE.", 75, 60, 120},
	{"ground_steering_gain", "Rudder units per degree of runway heading error on the ground.", 2, 0.1, 10},
	{"wings_level_gain", "Aileron units per degree of bank for wings-level correction.", 1.5, 0.1, 10},
	{"cruise_capture_margin_ft", "Altitude margin for CLIMB to capture CRUISE.", 200, 50, 1000},
	{"descent_vs_threshold_fpm", "Sustained sink rate magnitude for CRUISE to become DESCENT.", 300, 100, 1500},
	{"descent_confirm_frames", "Consecutive sinking frames before CRUISE becomes DESCENT.", 30, 1, 300},
	{"approach_agl_ft", "AGL below which DESCENT becomes APPROACH.", 3000, 500, 5000},
	{"approach_speed_kt", "Autopilot speed target on approach.", 65, 50, 100},
	{"approach_flaps1_agl_ft", "AGL below which the first flap stage extends on approach.", 1500, 500, 3000},
	{"approach_flaps2_agl_ft", "AGL below which the second flap stage extends on approach.", 1000, 300, 2000},
	{"approach_flaps3_agl_ft", "AGL below which full flaps extend on approach.", 600, 100, 1500},
	{"landing_agl_ft", "AGL below which APPROACH becomes LANDING.", 200, 50, 500},
	{"landing_taxi_speed_kt", "Ground speed below which LANDING becomes TAXI after touchdown.", 10, 3, 30},
}

// Store holds named numeric parameters with defaults and durable overrides.
// Written only by the advisory loop, read by the decision loop.
type Store struct {
	mu        sync.RWMutex
	params    map[string]Param
	order     []string
	overrides map[string]float64
	path      string
}

// NewStore creates a Store persisting overrides at path, loading any
// previously saved overrides. Overrides for unknown parameter names are
// dropped on load.
func NewStore(path string) *Store {
	s := &Store{
		params:    make(map[string]Param, len(Defaults)),
		order:     make([]string, 0, len(Defaults)),
		overrides: make(map[string]float64),
		path:      path,
	}
	for _, p := range Defaults {
		s.params[p.Name] = p
		s.order = append(s.order, p.Name)
	}

	var saved map[string]float64
	if err := storage.LoadJSON(path, &saved); err != nil {
		if err != storage.ErrNotFound {
			log.Printf("tuning: load overrides: %v", err)
		}
		return s
	}
	for name, v := range saved {
		p, ok := s.params[name]
		if !ok {
			continue
		}
		s.overrides[name] = clamp(v, p.Min, p.Max)
	}
	return s
}

// Get returns the current value for name: the override if one is set,
// otherwise the default. Unknown names return 0.
func (s *Store) Get(name string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[name]; ok {
		return v
	}
	return s.params[name].Default
}

// BulkSet applies the known keys of values, clamping each to its parameter's
// physical bounds, and persists the override set. Unknown keys are skipped
// individually; they never fail the rest of the update. Returns the number
// of keys applied.
func (s *Store) BulkSet(values map[string]float64) int {
	s.mu.Lock()
	applied := 0
	for name, v := range values {
		p, ok := s.params[name]
		if !ok {
			log.Printf("tuning: ignoring unknown parameter %q", name)
			continue
		}
		s.overrides[name] = clamp(v, p.Min, p.Max)
		applied++
	}
	snapshot := make(map[string]float64, len(s.overrides))
	for k, v := range s.overrides {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if applied > 0 {
		// In-memory state stays authoritative on save failure; the next
		// BulkSet writes the full override set again.
		if err := storage.SaveJSON(s.path, snapshot); err != nil {
			log.Printf("tuning: persist overrides: %v", err)
		}
	}
	return applied
}

// Params returns a snapshot of every parameter with its current value,
// in table order.
func (s *Store) Params() []ParamView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ParamView, 0, len(s.order))
	for _, name := range s.order {
		p := s.params[name]
		v, overridden := s.overrides[name]
		if !overridden {
			v = p.Default
		}
		out = append(out, ParamView{
			Name:        p.Name,
			Description: p.Description,
			Default:     p.Default,
			Current:     v,
			Overridden:  overridden,
		})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

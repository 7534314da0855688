package simlink

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType represents the wire data type for a SimVar value.
type DataType int

const (
	DataTypeFloat64 DataType = iota
	DataTypeInt32
)

// SimVarDef defines one simulation variable.
type SimVarDef struct {
	Name     string
	Unit     string
	DataType DataType
	Size     int
}

func f64(name, unit string) SimVarDef {
	return SimVarDef{Name: name, Unit: unit, DataType: DataTypeFloat64, Size: 8}
}

// FrameSimVars is the ordered slice of SimVars making up one state frame.
// The order determines the byte layout in SimObjectData responses; boolean
// vars arrive as float64 0/1. Appending is safe, reordering is not.
var FrameSimVars = []SimVarDef{
	f64("PLANE ALTITUDE", "feet"),
	f64("PLANE ALT ABOVE GROUND", "feet"),
	f64("AIRSPEED INDICATED", "knots"),
	f64("GROUND VELOCITY", "knots"),
	f64("VERTICAL SPEED", "feet/minute"),
	f64("PLANE HEADING DEGREES MAGNETIC", "degrees"),
	f64("PLANE PITCH DEGREES", "degrees"),
	f64("PLANE BANK DEGREES", "degrees"),
	f64("SIM ON GROUND", "bool"),
	f64("GENERAL ENG RPM:1", "rpm"),
	f64("GENERAL ENG THROTTLE LEVER POSITION:1", "percent"),
	f64("FLAPS HANDLE INDEX", "number"),
	f64("GEAR HANDLE POSITION", "bool"),
	f64("AUTOPILOT MASTER", "bool"),
	f64("AUTOPILOT HEADING LOCK", "bool"),
	f64("AUTOPILOT ALTITUDE LOCK", "bool"),
	f64("AUTOPILOT VERTICAL HOLD", "bool"),
	f64("AUTOPILOT AIRSPEED HOLD", "bool"),
	f64("AUTOPILOT APPROACH HOLD", "bool"),
	f64("PLANE LATITUDE", "degrees"),
	f64("PLANE LONGITUDE", "degrees"),
}

const (
	DefIDFrame   uint32 = 1
	ReqIDFrame   uint32 = 1
	ObjectIDUser uint32 = 0 // SIMCONNECT_OBJECT_ID_USER
)

// SimVarRegistry holds the allowlist of valid SimVars.
type SimVarRegistry struct {
	vars map[string]SimVarDef
}

// NewSimVarRegistry creates a registry with all frame SimVars.
func NewSimVarRegistry() *SimVarRegistry {
	r := &SimVarRegistry{vars: make(map[string]SimVarDef, len(FrameSimVars))}
	for _, v := range FrameSimVars {
		r.vars[v.Name] = v
	}
	return r
}

// Get returns the SimVarDef for the given name, if it exists.
func (r *SimVarRegistry) Get(name string) (SimVarDef, bool) {
	def, ok := r.vars[name]
	return def, ok
}

// Validate checks if a SimVar name is in the allowlist.
func (r *SimVarRegistry) Validate(name string) error {
	if _, ok := r.vars[name]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidSimVar, name)
	}
	return nil
}

// ParseSimVarValue decodes raw bytes into a typed value based on the DataType.
func ParseSimVarValue(data []byte, dt DataType) (any, error) {
	switch dt {
	case DataTypeFloat64:
		if len(data) < 8 {
			return nil, fmt.Errorf("float64 requires 8 bytes, got %d", len(data))
		}
		bits := binary.LittleEndian.Uint64(data[:8])
		return math.Float64frombits(bits), nil
	case DataTypeInt32:
		if len(data) < 4 {
			return nil, fmt.Errorf("int32 requires 4 bytes, got %d", len(data))
		}
		return int32(binary.LittleEndian.Uint32(data[:4])), nil //nolint:gosec // intentional reinterpretation of binary-encoded signed int32
	default:
		return nil, fmt.Errorf("unsupported data type: %d", dt)
	}
}

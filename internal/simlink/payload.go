package simlink

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/simwidget/autoflight/pkg/types"
)

// ParseFramePayload decodes a packed SimObjectData payload into a StateFrame.
// A short payload is tolerated: trailing fields the simulator did not send
// are left unknown. A NaN value is likewise treated as unknown, never as
// zero. A payload with no complete field at all is an error.
func ParseFramePayload(data []byte) (types.StateFrame, error) {
	n := len(data) / 8
	if n == 0 {
		return types.StateFrame{}, fmt.Errorf("payload too short: got %d bytes, need at least 8", len(data))
	}
	if n > len(FrameSimVars) {
		n = len(FrameSimVars)
	}

	vals := make([]types.Value, len(FrameSimVars))
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		v := math.Float64frombits(bits)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		vals[i] = types.Value{V: v, Known: true}
	}

	return types.StateFrame{
		Altitude:       vals[0],
		AltitudeAGL:    vals[1],
		IndicatedSpeed: vals[2],
		GroundSpeed:    vals[3],
		VerticalSpeed:  vals[4],
		Heading:        vals[5],
		Pitch:          vals[6],
		Bank:           vals[7],
		OnGround:       asFlag(vals[8]),
		EngineRPM:      vals[9],
		Throttle:       vals[10],
		FlapIndex:      vals[11],
		GearDown:       asFlag(vals[12]),
		Autopilot: types.AutopilotState{
			Master:       asFlag(vals[13]),
			HeadingHold:  asFlag(vals[14]),
			AltitudeHold: asFlag(vals[15]),
			VSHold:       asFlag(vals[16]),
			SpeedHold:    asFlag(vals[17]),
			ApproachHold: asFlag(vals[18]),
		},
		Latitude:  vals[19],
		Longitude: vals[20],
	}, nil
}

func asFlag(v types.Value) types.Flag {
	if !v.Known {
		return types.Flag{}
	}
	return types.Flag{V: v.V != 0, Known: true}
}

package simlink

import (
	"fmt"

	"github.com/simwidget/autoflight/internal/control"
)

// Actuation event IDs, one per command type the core can issue.
const (
	EvSetElevator uint32 = iota + 1
	EvSetAileron
	EvSetRudder
	EvSetThrottle
	EvSetMixture
	EvSetFlaps
	EvSetGear
	EvSetParkingBrake
	EvAPMaster
	EvAPHeadingHold
	EvAPAltitudeHold
	EvAPVSHold
	EvAPSpeedHold
	EvAPHeadingBug
	EvAPAltitudeTarget
	EvAPVSTarget
	EvAPSpeedTarget
)

var commandEvents = map[control.CommandType]uint32{
	control.CmdElevator:         EvSetElevator,
	control.CmdAileron:          EvSetAileron,
	control.CmdRudder:           EvSetRudder,
	control.CmdThrottle:         EvSetThrottle,
	control.CmdMixture:          EvSetMixture,
	control.CmdFlaps:            EvSetFlaps,
	control.CmdGear:             EvSetGear,
	control.CmdParkingBrake:     EvSetParkingBrake,
	control.CmdAPMaster:         EvAPMaster,
	control.CmdAPHeadingHold:    EvAPHeadingHold,
	control.CmdAPAltitudeHold:   EvAPAltitudeHold,
	control.CmdAPVSHold:         EvAPVSHold,
	control.CmdAPSpeedHold:      EvAPSpeedHold,
	control.CmdAPHeadingBug:     EvAPHeadingBug,
	control.CmdAPAltitudeTarget: EvAPAltitudeTarget,
	control.CmdAPVSTarget:       EvAPVSTarget,
	control.CmdAPSpeedTarget:    EvAPSpeedTarget,
}

// Dispatcher adapts the client's TransmitEvent to control.Dispatcher.
type Dispatcher struct {
	client *Client
}

// NewDispatcher creates a Dispatcher sending through client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// Dispatch implements control.Dispatcher.
func (d *Dispatcher) Dispatch(t control.CommandType, value float64) error {
	eventID, ok := commandEvents[t]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, t)
	}
	return d.client.TransmitEvent(eventID, value)
}

package simlink

import "errors"

var (
	ErrNotConnected  = errors.New("simlink: not connected")
	ErrInvalidSimVar = errors.New("simlink: invalid simvar")
	ErrUnknownEvent  = errors.New("simlink: unknown event for command")
)

package portal

import "time"

// Driver is the device abstraction the polling loop programs against.
//
// PollEvent distinguishes two non-event outcomes: a quiet poll (nothing
// happened within the timeout) returns (zero, false, nil), while a hard
// I/O fault returns an error wrapping ErrDeviceIO. Callers must treat only
// the latter as a fault.
type Driver interface {
	// SendCommand writes a pre-framed 32-byte packet to the device.
	SendCommand(pkt [32]byte) error

	// ChangeColor sets a pad to a solid colour.
	ChangeColor(pad Pad, c Color) error

	// FadeColor fades a pad towards a colour over pulseTime firmware
	// ticks, repeated pulseCount times.
	FadeColor(pad Pad, pulseTime, pulseCount uint8, c Color) error

	// FlashColor flashes a pad between a colour and its prior colour.
	FlashColor(pad Pad, onTime, offTime, pulseCount uint8, c Color) error

	// PollEvent waits up to timeout for a tag transition. The bool is
	// false on a quiet poll with a nil error.
	PollEvent(timeout time.Duration) (TagEvent, bool, error)

	// Close releases the device.
	Close() error
}

// commandSender is the single primitive both driver implementations build
// their colour methods on.
type commandSender interface {
	SendCommand(pkt [32]byte) error
}

// colorCommands provides the three colour methods in terms of SendCommand,
// shared by USBDriver and SimDriver.
type colorCommands struct {
	sender commandSender
}

func (c colorCommands) ChangeColor(pad Pad, col Color) error {
	return c.sender.SendCommand(changeColorCommand(pad, col))
}

func (c colorCommands) FadeColor(pad Pad, pulseTime, pulseCount uint8, col Color) error {
	return c.sender.SendCommand(fadeColorCommand(pad, pulseTime, pulseCount, col))
}

func (c colorCommands) FlashColor(pad Pad, onTime, offTime, pulseCount uint8, col Color) error {
	return c.sender.SendCommand(flashColorCommand(pad, onTime, offTime, pulseCount, col))
}

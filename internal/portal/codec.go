package portal

import (
	"encoding/hex"
	"strings"
)

// Pad identifies one of the device's sensing zones, or all of them.
type Pad uint8

// Pad indices as the firmware numbers them. Some early device documentation
// swapped the circle and left pads; this mapping is the canonical one and
// the only one supported.
const (
	PadAll    Pad = 0
	PadCircle Pad = 1
	PadLeft   Pad = 2
	PadRight  Pad = 3
)

// String returns a human-readable pad name for logs and API responses.
func (p Pad) String() string {
	switch p {
	case PadAll:
		return "all"
	case PadCircle:
		return "circle"
	case PadLeft:
		return "left"
	case PadRight:
		return "right"
	default:
		return "unknown"
	}
}

// TagEvent is a single physical tag transition reported by the device.
// It is an immutable value: produced once per transition, never mutated.
type TagEvent struct {
	// Removed is true when the tag left the pad, false when it was placed.
	Removed bool

	// Pad is the pad the transition happened on.
	Pad Pad

	// ID is the tag UID as lowercase hex with any leading "000000" runs
	// stripped. It is the tag's identity throughout the system.
	ID string
}

// Wire framing constants.
const (
	// packetSize is the fixed size of every USB transfer in both directions.
	packetSize = 32

	// eventMarker is the first byte of every valid inbound event frame.
	eventMarker = 0x56

	// uidOffset and uidLength locate the tag UID within an event frame.
	uidOffset = 6
	uidLength = 7
)

// encodeCommand frames a command header into a full 32-byte packet:
// the header bytes, then a mod-256 checksum of the header, then zero
// padding to 32 bytes. Headers longer than 31 bytes are truncated by the
// fixed packet size; no valid command approaches that limit.
func encodeCommand(header []byte) [packetSize]byte {
	var pkt [packetSize]byte
	copy(pkt[:], header)

	var sum uint32
	for _, b := range header {
		sum += uint32(b)
	}
	pkt[len(header)] = byte(sum % 256)

	return pkt
}

// changeColorCommand builds the packet that sets a pad to a solid colour.
func changeColorCommand(pad Pad, c Color) [packetSize]byte {
	return encodeCommand([]byte{0x55, 0x06, 0xC0, 0x02, byte(pad), c.R, c.G, c.B})
}

// fadeColorCommand builds the packet that fades a pad towards a colour.
// pulseTime is the fade duration in firmware ticks, pulseCount the number
// of fade cycles (odd counts end on the target colour).
func fadeColorCommand(pad Pad, pulseTime, pulseCount uint8, c Color) [packetSize]byte {
	return encodeCommand([]byte{0x55, 0x08, 0xC2, 0x0F, byte(pad), pulseTime, pulseCount, c.R, c.G, c.B})
}

// flashColorCommand builds the packet that flashes a pad between the
// requested colour and its prior colour. onTime and offTime are in firmware
// ticks; odd pulse counts end on the requested colour, even counts revert
// to the prior colour.
func flashColorCommand(pad Pad, onTime, offTime, pulseCount uint8, c Color) [packetSize]byte {
	return encodeCommand([]byte{0x55, 0x09, 0xC3, 0x03, byte(pad), onTime, offTime, pulseCount, c.R, c.G, c.B})
}

// wakeCommand is the initialisation packet sent once after the USB
// interface is claimed. The device stays dark until it receives this.
var wakeCommand = [packetSize]byte{
	0x55, 0x0f, 0xb0, 0x01, 0x28, 0x63, 0x29, 0x20,
	0x4c, 0x45, 0x47, 0x4f, 0x20, 0x32, 0x30, 0x31,
	0x34, 0xf7, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// decodeEvent parses an inbound frame into a TagEvent. The second return
// value is false when the frame is not a tag event (wrong marker byte or
// short read) and the frame should be discarded silently.
func decodeEvent(frame []byte) (TagEvent, bool) {
	if len(frame) < uidOffset+uidLength || frame[0] != eventMarker {
		return TagEvent{}, false
	}

	return TagEvent{
		Removed: frame[5] != 0,
		Pad:     Pad(frame[2]),
		ID:      normalizeUID(frame[uidOffset : uidOffset+uidLength]),
	}, true
}

// normalizeUID hex-encodes a raw UID and strips leading "000000" runs.
// Short UIDs arrive zero-padded on the wire; stripping in six-character
// steps normalises them to a stable identifier. The operation is
// idempotent on already-stripped input.
func normalizeUID(raw []byte) string {
	id := hex.EncodeToString(raw)
	for strings.HasPrefix(id, "000000") {
		id = strings.TrimPrefix(id, "000000")
	}
	return id
}

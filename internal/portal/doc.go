// Package portal implements the USB protocol and drivers for the NFC
// portal device.
//
// The device exposes three sensing pads (a circle pad plus left and right
// rectangular pads), each with an RGB backlight. Communication happens over
// USB bulk transfers in fixed 32-byte packets: outbound packets set pad
// colours (solid, fade, flash), inbound packets report tag placement and
// removal.
//
// The package splits into three layers:
//
//   - Codec: stateless encode/decode of the 32-byte wire packets.
//   - Driver: the interface the polling loop programs against.
//   - Implementations: USBDriver (real hardware via gousb) and SimDriver
//     (synthetic events for hardware-free runs and tests).
//
// Colour channels use the device's native 0-100 intensity scale, not 0-255.
package portal

package portal

import "errors"

// Domain errors for the portal package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, portal.ErrDeviceIO) {
//	    // hard fault, count towards the retry threshold
//	}
var (
	// ErrDeviceNotFound is returned when the portal device is not attached
	// or cannot be opened.
	ErrDeviceNotFound = errors.New("portal: device not found")

	// ErrDeviceIO is returned for hard I/O faults on the device (transfer
	// errors, device disconnected, permission lost). A quiet poll timeout
	// is not an I/O fault and is never wrapped in this error.
	ErrDeviceIO = errors.New("portal: device i/o error")

	// ErrClosed is returned when a command is sent on a closed driver.
	ErrClosed = errors.New("portal: driver closed")
)

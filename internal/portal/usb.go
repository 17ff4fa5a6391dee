package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

// Default USB identifiers for the portal device.
const (
	DefaultVendorID  = 0x0e6f
	DefaultProductID = 0x0241
)

// Bulk endpoint numbers. The device exposes OUT 0x01 for commands and
// IN 0x81 for events.
const (
	outEndpointNum = 1
	inEndpointNum  = 1
)

// USBDriver drives the physical portal over USB bulk transfers.
//
// The device is opened and its interface claimed once at construction;
// construction fails if the device is absent. The wake-up command is sent
// immediately after claiming, without it the device stays dark and never
// reports events.
//
// The driver is safe for concurrent use, though in practice the polling
// loop is its only caller.
type USBDriver struct {
	colorCommands

	usbCtx *gousb.Context
	dev    *gousb.Device
	intf   *gousb.Interface
	doneFn func()
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint

	mu     sync.Mutex
	closed bool
}

// USBConfig selects which device to open.
type USBConfig struct {
	// VendorID and ProductID identify the device. Zero values fall back
	// to the defaults.
	VendorID  uint16
	ProductID uint16
}

// OpenUSB opens the portal device, claims its interface and wakes it up.
//
// Returns:
//   - *USBDriver: Ready-to-poll driver
//   - error: ErrDeviceNotFound if the device is absent, otherwise the
//     underlying USB error
func OpenUSB(cfg USBConfig) (*USBDriver, error) {
	vid := cfg.VendorID
	if vid == 0 {
		vid = DefaultVendorID
	}
	pid := cfg.ProductID
	if pid == 0 {
		pid = DefaultProductID
	}

	usbCtx := gousb.NewContext()

	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		usbCtx.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("opening device %04x:%04x: %w", vid, pid, err)
	}
	if dev == nil {
		usbCtx.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("device %04x:%04x: %w", vid, pid, ErrDeviceNotFound)
	}

	// Detach any kernel driver holding the interface (hidraw claims the
	// device on most Linux systems).
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()    //nolint:errcheck
		usbCtx.Close() //nolint:errcheck
		return nil, fmt.Errorf("enabling kernel driver auto-detach: %w", err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()    //nolint:errcheck
		usbCtx.Close() //nolint:errcheck
		return nil, fmt.Errorf("claiming interface: %w", err)
	}

	epOut, err := intf.OutEndpoint(outEndpointNum)
	if err != nil {
		done()
		dev.Close()    //nolint:errcheck
		usbCtx.Close() //nolint:errcheck
		return nil, fmt.Errorf("opening out endpoint: %w", err)
	}

	epIn, err := intf.InEndpoint(inEndpointNum)
	if err != nil {
		done()
		dev.Close()    //nolint:errcheck
		usbCtx.Close() //nolint:errcheck
		return nil, fmt.Errorf("opening in endpoint: %w", err)
	}

	d := &USBDriver{
		usbCtx: usbCtx,
		dev:    dev,
		intf:   intf,
		doneFn: done,
		epOut:  epOut,
		epIn:   epIn,
	}
	d.colorCommands = colorCommands{sender: d}

	if err := d.SendCommand(wakeCommand); err != nil {
		d.Close() //nolint:errcheck
		return nil, fmt.Errorf("sending wake command: %w", err)
	}

	return d, nil
}

// SendCommand writes a framed packet to the command endpoint.
func (d *USBDriver) SendCommand(pkt [32]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if _, err := d.epOut.Write(pkt[:]); err != nil {
		return fmt.Errorf("%w: writing command: %w", ErrDeviceIO, err)
	}
	return nil
}

// PollEvent reads the event endpoint with a bounded timeout.
//
// A read that times out with no data is a quiet poll, returned as
// (zero, false, nil). Any other transfer failure is a hard fault wrapping
// ErrDeviceIO. Frames that are not tag events (wrong marker byte) are
// discarded silently and reported as a quiet poll.
func (d *USBDriver) PollEvent(timeout time.Duration) (TagEvent, bool, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return TagEvent{}, false, ErrClosed
	}
	epIn := d.epIn
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	buf := make([]byte, packetSize)
	n, err := epIn.ReadContext(ctx, buf)
	if err != nil {
		if isReadTimeout(err) {
			return TagEvent{}, false, nil
		}
		return TagEvent{}, false, fmt.Errorf("%w: reading event: %w", ErrDeviceIO, err)
	}

	evt, ok := decodeEvent(buf[:n])
	return evt, ok, nil
}

// isReadTimeout reports whether a read error means "no data yet" rather
// than a device fault.
func isReadTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, gousb.ErrorTimeout) ||
		errors.Is(err, gousb.TransferCancelled)
}

// Close releases the interface, device and USB context. Safe to call more
// than once.
func (d *USBDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.doneFn != nil {
		d.doneFn()
	}

	var errs []error
	if d.dev != nil {
		if err := d.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing device: %w", err))
		}
	}
	if d.usbCtx != nil {
		if err := d.usbCtx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing usb context: %w", err))
		}
	}

	return errors.Join(errs...)
}

package portal

import (
	"math/rand"
	"sync"
	"time"
)

// SimDriver is an in-memory portal for hardware-free runs and tests.
//
// Each poll has a small chance of emitting a synthetic tag transition.
// The driver tracks which synthetic tags are present so removals always
// match a prior placement, mirroring what real hardware can produce.
// Colour commands are accepted and counted but have no visible effect.
type SimDriver struct {
	colorCommands

	// EventChance is the probability (0.0-1.0) that a poll produces an
	// event. Defaults to 0.05 when zero.
	EventChance float64

	mu       sync.Mutex
	rng      *rand.Rand
	present  map[string]Pad
	sent     int
	closed   bool
	injected []TagEvent
}

// NewSimDriver creates a simulated driver seeded from the current time.
func NewSimDriver() *SimDriver {
	d := &SimDriver{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		present: make(map[string]Pad),
	}
	d.colorCommands = colorCommands{sender: d}
	return d
}

// SendCommand accepts any framed packet. The sent counter is exposed via
// CommandsSent for tests asserting pad feedback happened.
func (d *SimDriver) SendCommand(_ [32]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.sent++
	return nil
}

// CommandsSent returns how many commands have been accepted.
func (d *SimDriver) CommandsSent() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent
}

// Inject queues an event to be returned by the next PollEvent calls, ahead
// of any random generation. Tests use this for deterministic scenarios.
func (d *SimDriver) Inject(evt TagEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.injected = append(d.injected, evt)
}

// PollEvent returns a queued injected event if one exists, otherwise
// randomly generates a placement or removal. Quiet polls sleep for the
// timeout to approximate real device pacing.
func (d *SimDriver) PollEvent(timeout time.Duration) (TagEvent, bool, error) {
	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()
		return TagEvent{}, false, ErrClosed
	}

	if len(d.injected) > 0 {
		evt := d.injected[0]
		d.injected = d.injected[1:]
		d.applyLocked(evt)
		d.mu.Unlock()
		return evt, true, nil
	}

	chance := d.EventChance
	if chance == 0 {
		chance = 0.05
	}

	if d.rng.Float64() >= chance {
		d.mu.Unlock()
		time.Sleep(timeout)
		return TagEvent{}, false, nil
	}

	evt := d.generateLocked()
	d.applyLocked(evt)
	d.mu.Unlock()
	return evt, true, nil
}

// generateLocked produces a random transition consistent with the present
// set: removals only for tags currently placed, placements with fresh UIDs.
// Caller holds d.mu.
func (d *SimDriver) generateLocked() TagEvent {
	// Remove an existing tag half the time, when any are present.
	if len(d.present) > 0 && d.rng.Intn(2) == 0 {
		for id, pad := range d.present {
			return TagEvent{Removed: true, Pad: pad, ID: id}
		}
	}

	raw := make([]byte, uidLength)
	d.rng.Read(raw) //nolint:errcheck // math/rand Read never fails
	raw[0] = 0      // Short UID, exercises the leading-zero stripping

	pad := Pad(1 + d.rng.Intn(3))
	return TagEvent{Pad: pad, ID: normalizeUID(raw)}
}

// applyLocked keeps the present set consistent with an emitted event.
// Caller holds d.mu.
func (d *SimDriver) applyLocked(evt TagEvent) {
	if evt.Removed {
		delete(d.present, evt.ID)
	} else {
		d.present[evt.ID] = evt.Pad
	}
}

// Close marks the driver closed. Subsequent calls fail with ErrClosed.
func (d *SimDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// compile-time interface checks
var (
	_ Driver = (*USBDriver)(nil)
	_ Driver = (*SimDriver)(nil)
)

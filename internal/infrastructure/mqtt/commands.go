package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/bricknest/portal-core/internal/portal"
)

// Subscriber is the slice of Client the command listener needs,
// extracted so tests can substitute a fake.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

// PadCommander is the slice of the pad driver the command listener
// drives.
type PadCommander interface {
	ChangeColor(pad portal.Pad, c portal.Color) error
	FadeColor(pad portal.Pad, pulseTime, pulseCount uint8, c portal.Color) error
	FlashColor(pad portal.Pad, onTime, offTime, pulseCount uint8, c portal.Color) error
}

// colorCommand is the wire form of an inbound pad colour command.
type colorCommand struct {
	Pad    int    `json:"pad"`
	Effect string `json:"effect,omitempty"`
	R      uint8  `json:"r"`
	G      uint8  `json:"g"`
	B      uint8  `json:"b"`
}

// Timing applied to fade and flash commands; matches the loop's feedback
// timings so externally driven effects look the same as native ones.
const (
	commandFadeTime    = 10
	commandFadePulses  = 1
	commandFlashOn     = 8
	commandFlashOff    = 8
	commandFlashPulses = 4
)

// CommandListener lets external integrations drive the pad lights over
// MQTT. It subscribes to the colour command topic and applies each
// decoded command to the driver.
//
// Commands race with the polling loop's own feedback: the driver
// serialises writes and whichever colour lands last wins.
type CommandListener struct {
	sub    Subscriber
	pad    PadCommander
	qos    byte
	logger Logger
}

// NewCommandListener creates a listener subscribing at the given QoS.
func NewCommandListener(sub Subscriber, pad PadCommander, qos byte) *CommandListener {
	return &CommandListener{sub: sub, pad: pad, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger for the listener.
func (l *CommandListener) SetLogger(logger Logger) {
	l.logger = logger
}

// Start subscribes to the command topic. Call once after the client has
// connected; the client restores the subscription across reconnects.
func (l *CommandListener) Start() error {
	if err := l.sub.Subscribe(Topics{}.CommandColor(), l.qos, l.handleColor); err != nil {
		return fmt.Errorf("subscribing to %s: %w", Topics{}.CommandColor(), err)
	}
	return nil
}

// handleColor decodes and applies a single colour command. Errors are
// returned so the client's handler wrapper logs them.
func (l *CommandListener) handleColor(_ string, payload []byte) error {
	var cmd colorCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("decoding colour command: %w", err)
	}
	if cmd.Pad < int(portal.PadAll) || cmd.Pad > int(portal.PadRight) {
		return fmt.Errorf("colour command: pad %d out of range", cmd.Pad)
	}

	pad := portal.Pad(cmd.Pad)
	col := portal.Color{R: cmd.R, G: cmd.G, B: cmd.B}

	var err error
	switch cmd.Effect {
	case "", "change":
		err = l.pad.ChangeColor(pad, col)
	case "fade":
		err = l.pad.FadeColor(pad, commandFadeTime, commandFadePulses, col)
	case "flash":
		err = l.pad.FlashColor(pad, commandFlashOn, commandFlashOff, commandFlashPulses, col)
	default:
		return fmt.Errorf("colour command: unknown effect %q", cmd.Effect)
	}
	if err != nil {
		return fmt.Errorf("applying colour command: %w", err)
	}
	return nil
}

package mqtt

import (
	"encoding/json"
	"time"

	"github.com/bricknest/portal-core/internal/bus"
	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// Publisher is the slice of Client the Mirror needs, extracted so tests
// can substitute a fake.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Mirror republishes in-process bus traffic to MQTT so external
// integrations (dashboards, automations) can observe portal activity
// without linking into the process.
//
// Mirroring is strictly best effort: publish failures are logged and
// dropped, and the polling loop never depends on the mirror or the
// broker being up.
type Mirror struct {
	pub    Publisher
	qos    byte
	logger Logger
}

// eventEnvelope is the wire form of a mirrored tag event.
type eventEnvelope struct {
	ID        string `json:"id"`
	Pad       string `json:"pad"`
	Removed   bool   `json:"removed"`
	TagType   string `json:"tag_type"`
	TagName   string `json:"tag_name,omitempty"`
	Timestamp string `json:"timestamp"`
}

// responseEnvelope is the wire form of a mirrored handler response.
type responseEnvelope struct {
	ID        string       `json:"id"`
	Pad       string       `json:"pad"`
	Color     *colorFields `json:"color,omitempty"`
	Timestamp string       `json:"timestamp"`
}

type colorFields struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// NewMirror creates a mirror publishing at the given QoS.
func NewMirror(pub Publisher, qos byte) *Mirror {
	return &Mirror{pub: pub, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger for the mirror.
func (m *Mirror) SetLogger(logger Logger) {
	m.logger = logger
}

// Attach subscribes the mirror to every bus topic it republishes. Call
// once during startup.
func (m *Mirror) Attach(b *bus.Bus) {
	topics := Topics{}

	b.SubscribeTag(bus.TagAdded, m.tagHandler(topics.TagAdded()))
	b.SubscribeTag(bus.TagRemoved, m.tagHandler(topics.TagRemoved()))

	b.SubscribeResponse(bus.HandlerAddSuccess, m.responseHandler(topics.ResponseAddSuccess()))
	b.SubscribeResponse(bus.HandlerAddError, m.responseHandler(topics.ResponseAddError()))
	b.SubscribeResponse(bus.HandlerRemoveSuccess, m.responseHandler(topics.ResponseRemoveSuccess()))
	b.SubscribeResponse(bus.HandlerRemoveError, m.responseHandler(topics.ResponseRemoveError()))
	b.SubscribeResponse(bus.HandlerProcessingStarted, m.responseHandler(topics.ResponseProcessing()))
}

func (m *Mirror) tagHandler(topic string) bus.TagHandler {
	return func(evt portal.TagEvent, t tag.Tag) {
		env := eventEnvelope{
			ID:        evt.ID,
			Pad:       evt.Pad.String(),
			Removed:   evt.Removed,
			TagType:   t.Type(),
			TagName:   t.Name(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		m.publish(topic, env)
	}
}

func (m *Mirror) responseHandler(topic string) bus.ResponseHandler {
	return func(resp bus.Response) {
		env := responseEnvelope{
			ID:        resp.Event.ID,
			Pad:       resp.Event.Pad.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if resp.Color != nil {
			env.Color = &colorFields{R: resp.Color.R, G: resp.Color.G, B: resp.Color.B}
		}
		m.publish(topic, env)
	}
}

func (m *Mirror) publish(topic string, env any) {
	payload, err := json.Marshal(env)
	if err != nil {
		m.logger.Error("encoding mirror payload failed", "topic", topic, "error", err)
		return
	}

	if err := m.pub.Publish(topic, payload, m.qos, false); err != nil {
		m.logger.Warn("mirror publish failed", "topic", topic, "error", err)
	}
}

package plugin

import (
	"errors"
	"testing"

	"github.com/bricknest/portal-core/internal/bus"
	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// recordingPlugin captures hook invocations and returns a scripted error.
type recordingPlugin struct {
	Base
	addCalls    int
	removeCalls int
	hookErr     error
	panicValue  any
}

func (p *recordingPlugin) OnTagAdded(portal.TagEvent, tag.Tag) error {
	p.addCalls++
	if p.panicValue != nil {
		panic(p.panicValue)
	}
	return p.hookErr
}

func (p *recordingPlugin) OnTagRemoved(portal.TagEvent, tag.Tag) error {
	p.removeCalls++
	return p.hookErr
}

// responseRecorder captures every handler response on the bus.
type responseRecorder struct {
	topics []bus.Topic
	resps  []bus.Response
}

func newResponseRecorder(b *bus.Bus) *responseRecorder {
	r := &responseRecorder{}
	for _, topic := range []bus.Topic{
		bus.HandlerAddSuccess, bus.HandlerAddError,
		bus.HandlerRemoveSuccess, bus.HandlerRemoveError,
		bus.HandlerProcessingStarted,
	} {
		topic := topic
		b.SubscribeResponse(topic, func(resp bus.Response) {
			r.topics = append(r.topics, topic)
			r.resps = append(r.resps, resp)
		})
	}
	return r
}

func newDispatchFixture() (*bus.Bus, *tag.Registry, *Dispatcher, *responseRecorder) {
	b := bus.New()
	reg := tag.NewRegistry(tag.NewMockRepository())
	d := NewDispatcher(b, reg)
	rec := newResponseRecorder(b)
	return b, reg, d, rec
}

func TestDispatchSuccessPublishesColor(t *testing.T) {
	b, _, d, rec := newDispatchFixture()

	p := &recordingPlugin{Base: NewBase("test", "", portal.ColorOrange)}
	d.Register(p)

	evt := portal.TagEvent{Pad: portal.PadCircle, ID: "aaa"}
	b.PublishTag(bus.TagAdded, evt, tag.NewUnregistered("aaa"))

	if p.addCalls != 1 {
		t.Fatalf("addCalls = %d, want 1", p.addCalls)
	}
	if len(rec.topics) != 1 || rec.topics[0] != bus.HandlerAddSuccess {
		t.Fatalf("topics = %v, want [add.success]", rec.topics)
	}
	if rec.resps[0].Color == nil || *rec.resps[0].Color != portal.ColorOrange {
		t.Errorf("response colour = %v, want plugin success colour", rec.resps[0].Color)
	}
}

func TestDispatchHookErrorPublishesError(t *testing.T) {
	b, _, d, rec := newDispatchFixture()

	p := &recordingPlugin{
		Base:    NewBase("test", "", portal.Color{}),
		hookErr: Failf("endpoint unreachable"),
	}
	d.Register(p)

	evt := portal.TagEvent{Pad: portal.PadLeft, ID: "aaa"}
	b.PublishTag(bus.TagAdded, evt, tag.NewUnregistered("aaa"))

	if len(rec.topics) != 1 || rec.topics[0] != bus.HandlerAddError {
		t.Fatalf("topics = %v, want [add.error]", rec.topics)
	}
	if rec.resps[0].Event != evt {
		t.Errorf("error response event = %+v, want the triggering event", rec.resps[0].Event)
	}
}

func TestDispatchRemoveOutcomes(t *testing.T) {
	b, _, d, rec := newDispatchFixture()

	ok := &recordingPlugin{Base: NewBase("ok", "", portal.Color{})}
	d.Register(ok)

	evt := portal.TagEvent{Removed: true, Pad: portal.PadRight, ID: "aaa"}
	b.PublishTag(bus.TagRemoved, evt, tag.NewUnregistered("aaa"))

	if ok.removeCalls != 1 {
		t.Fatalf("removeCalls = %d, want 1", ok.removeCalls)
	}
	if len(rec.topics) != 1 || rec.topics[0] != bus.HandlerRemoveSuccess {
		t.Fatalf("topics = %v, want [remove.success]", rec.topics)
	}
	// Remove success carries no colour; the loop fades back to idle.
	if rec.resps[0].Color != nil {
		t.Errorf("remove success colour = %v, want nil", rec.resps[0].Color)
	}
}

func TestDispatchTypeFilter(t *testing.T) {
	b, _, d, rec := newDispatchFixture()

	filtered := &recordingPlugin{Base: NewBase("filtered", "webhook", portal.Color{})}
	catchAll := &recordingPlugin{Base: NewBase("all", "", portal.Color{})}
	d.Register(filtered)
	d.Register(catchAll)

	// An unregistered tag must never reach the webhook-typed plugin.
	evt := portal.TagEvent{Pad: portal.PadCircle, ID: "deadbeef"}
	b.PublishTag(bus.TagAdded, evt, tag.NewUnregistered("deadbeef"))

	if filtered.addCalls != 0 {
		t.Errorf("filtered plugin invoked %d times, want 0", filtered.addCalls)
	}
	if catchAll.addCalls != 1 {
		t.Errorf("catch-all plugin invoked %d times, want 1", catchAll.addCalls)
	}

	// Exactly one response, from the catch-all; the filtered plugin
	// publishes nothing at all.
	if len(rec.topics) != 1 {
		t.Errorf("topics = %v, want a single response", rec.topics)
	}
}

func TestDispatchPanicBecomesErrorResponse(t *testing.T) {
	b, _, d, rec := newDispatchFixture()

	p := &recordingPlugin{
		Base:       NewBase("broken", "", portal.Color{}),
		panicValue: "nil map write",
	}
	d.Register(p)

	evt := portal.TagEvent{Pad: portal.PadCircle, ID: "aaa"}
	b.PublishTag(bus.TagAdded, evt, tag.NewUnregistered("aaa"))

	if len(rec.topics) != 1 || rec.topics[0] != bus.HandlerAddError {
		t.Fatalf("topics = %v, want [add.error] after panic", rec.topics)
	}
}

func TestDispatchLongRunningPublishesProcessingStarted(t *testing.T) {
	b, _, d, rec := newDispatchFixture()

	p := &slowPlugin{Base: NewBase("slow", "", portal.Color{})}
	d.Register(p)

	evt := portal.TagEvent{Pad: portal.PadCircle, ID: "aaa"}
	b.PublishTag(bus.TagAdded, evt, tag.NewUnregistered("aaa"))

	if len(rec.topics) != 2 {
		t.Fatalf("topics = %v, want processing_started then add.success", rec.topics)
	}
	if rec.topics[0] != bus.HandlerProcessingStarted {
		t.Errorf("first topic = %v, want processing_started", rec.topics[0])
	}
	if rec.topics[1] != bus.HandlerAddSuccess {
		t.Errorf("second topic = %v, want add.success", rec.topics[1])
	}
}

type slowPlugin struct {
	Base
}

func (slowPlugin) LongRunning() bool { return true }

func TestRegisterWiresTagFactory(t *testing.T) {
	_, reg, d, _ := newDispatchFixture()

	d.Register(NewWebhookPlugin(NewHTTPPoster()))

	types := reg.Types()
	found := false
	for _, name := range types {
		if name == TypeWebhook {
			found = true
		}
	}
	if !found {
		t.Errorf("registry types = %v, want %q registered", types, TypeWebhook)
	}
}

func TestFailfWrapsOperationError(t *testing.T) {
	err := Failf("status %d", 503)
	if !errors.Is(err, ErrOperation) {
		t.Errorf("Failf() error = %v, want ErrOperation", err)
	}
}

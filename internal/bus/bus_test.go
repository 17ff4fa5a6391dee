package bus

import (
	"testing"

	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

func TestPublishTagFanOut(t *testing.T) {
	b := New()

	var first, second int
	b.SubscribeTag(TagAdded, func(portal.TagEvent, tag.Tag) { first++ })
	b.SubscribeTag(TagAdded, func(portal.TagEvent, tag.Tag) { second++ })
	b.SubscribeTag(TagRemoved, func(portal.TagEvent, tag.Tag) { t.Error("wrong topic delivered") })

	evt := portal.TagEvent{Pad: portal.PadCircle, ID: "deadbeef"}
	b.PublishTag(TagAdded, evt, tag.NewUnregistered("deadbeef"))

	if first != 1 || second != 1 {
		t.Errorf("fan-out counts = %d, %d; want 1, 1", first, second)
	}
}

func TestPublishTagPayload(t *testing.T) {
	b := New()

	var gotEvt portal.TagEvent
	var gotTag tag.Tag
	b.SubscribeTag(TagRemoved, func(evt portal.TagEvent, t tag.Tag) {
		gotEvt = evt
		gotTag = t
	})

	evt := portal.TagEvent{Removed: true, Pad: portal.PadLeft, ID: "abc123"}
	b.PublishTag(TagRemoved, evt, tag.NewUnregistered("abc123"))

	if gotEvt != evt {
		t.Errorf("event = %+v, want %+v", gotEvt, evt)
	}
	if gotTag == nil || gotTag.Identifier() != "abc123" {
		t.Errorf("tag = %v, want identifier abc123", gotTag)
	}
}

func TestPublishResponse(t *testing.T) {
	b := New()

	var got []Response
	b.SubscribeResponse(HandlerAddSuccess, func(resp Response) {
		got = append(got, resp)
	})
	b.SubscribeResponse(HandlerAddError, func(Response) {
		t.Error("wrong topic delivered")
	})

	color := portal.ColorGreen
	resp := Response{
		Event: portal.TagEvent{Pad: portal.PadRight, ID: "abc123"},
		Color: &color,
	}
	b.PublishResponse(HandlerAddSuccess, resp)

	if len(got) != 1 {
		t.Fatalf("received %d responses, want 1", len(got))
	}
	if got[0].Color == nil || *got[0].Color != portal.ColorGreen {
		t.Errorf("color = %v, want green", got[0].Color)
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	b := New()

	// Publishing to an empty topic must not panic.
	b.PublishTag(TagAdded, portal.TagEvent{ID: "x"}, tag.NewUnregistered("x"))
	b.PublishResponse(HandlerRemoveError, Response{})
}

// Package bus provides the typed in-process event bus connecting the
// polling loop to its plugins.
//
// Two payload shapes travel over the bus: tag events (a raw device event
// with its resolved Tag), published by the polling loop, and handler
// responses (the outcome of a plugin processing a tag event), published by
// the plugin dispatcher and consumed by the loop for pad feedback.
//
// Fan-out is synchronous on the publisher's goroutine: subscribers run
// sequentially and a slow subscriber delays everyone behind it. No
// ordering is guaranteed between independently registered subscribers of
// the same topic; subscribers must not depend on running before or after
// one another.
package bus

import (
	"sync"

	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// Topic identifies an event stream on the bus.
type Topic string

// Tag event topics, published by the polling loop. Payload: the raw
// device event and the resolved Tag.
const (
	TagAdded   Topic = "tag.added"
	TagRemoved Topic = "tag.removed"
)

// Handler response topics, published by the plugin dispatcher. Payload:
// a Response.
const (
	HandlerAddSuccess        Topic = "handler_response.add.success"
	HandlerAddError          Topic = "handler_response.add.error"
	HandlerRemoveSuccess     Topic = "handler_response.remove.success"
	HandlerRemoveError       Topic = "handler_response.remove.error"
	HandlerProcessingStarted Topic = "handler_response.processing_started"
)

// TagHandler receives a tag event. Handlers must not mutate the event or
// the Tag.
type TagHandler func(evt portal.TagEvent, t tag.Tag)

// Response is the outcome of a plugin handling a tag event. Color is the
// pad colour to display, nil when the topic implies one (error topics use
// the configured error colour, remove-success the idle colour).
type Response struct {
	Event portal.TagEvent
	Color *portal.Color
}

// ResponseHandler receives a handler response.
type ResponseHandler func(resp Response)

// Bus is a topic-keyed listener registry. The zero value is not usable;
// call New.
//
// Subscription normally completes during startup, before the polling loop
// runs, but both sides are mutex-guarded so late subscription is safe.
type Bus struct {
	mu       sync.RWMutex
	tagSubs  map[Topic][]TagHandler
	respSubs map[Topic][]ResponseHandler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		tagSubs:  make(map[Topic][]TagHandler),
		respSubs: make(map[Topic][]ResponseHandler),
	}
}

// SubscribeTag registers a handler for a tag event topic.
func (b *Bus) SubscribeTag(topic Topic, h TagHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tagSubs[topic] = append(b.tagSubs[topic], h)
}

// SubscribeResponse registers a handler for a handler response topic.
func (b *Bus) SubscribeResponse(topic Topic, h ResponseHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.respSubs[topic] = append(b.respSubs[topic], h)
}

// PublishTag delivers a tag event to every subscriber of the topic,
// sequentially on the caller's goroutine.
func (b *Bus) PublishTag(topic Topic, evt portal.TagEvent, t tag.Tag) {
	b.mu.RLock()
	handlers := b.tagSubs[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt, t)
	}
}

// PublishResponse delivers a response to every subscriber of the topic,
// sequentially on the caller's goroutine.
func (b *Bus) PublishResponse(topic Topic, resp Response) {
	b.mu.RLock()
	handlers := b.respSubs[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(resp)
	}
}

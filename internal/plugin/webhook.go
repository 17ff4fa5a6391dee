package plugin

import (
	"context"

	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// TypeWebhook is the tag type handled by WebhookPlugin.
const TypeWebhook = "webhook"

// Webhook tag attribute keys.
const (
	attrAddedURL        = "added_url"
	attrAddedPostJSON   = "added_post_json"
	attrRemovedURL      = "removed_url"
	attrRemovedPostJSON = "removed_post_json"
)

// WebhookTag is a tag that calls HTTP endpoints when placed or removed.
// Webhooks are common enough that this ships with the core; it also
// serves as the reference for writing new tag types.
//
// Required attributes: added_url. Optional: added_post_json (the JSON
// payload for the add call), removed_url and removed_post_json (a missing
// removed_url makes removal a silent success).
type WebhookTag struct {
	tag.Base
}

// NewWebhookTag constructs a WebhookTag, failing when added_url is
// missing.
func NewWebhookTag(id, name, description string, attrs map[string]any) (tag.Tag, error) {
	base, err := tag.NewBase(TypeWebhook, id, name, description, attrs, []string{attrAddedURL})
	if err != nil {
		return nil, err
	}
	return &WebhookTag{Base: base}, nil
}

// AddedURL is the endpoint called when the tag is placed.
func (t *WebhookTag) AddedURL() string { return t.StringAttr(attrAddedURL) }

// AddedPayload is the JSON payload for the add call, nil when unset.
func (t *WebhookTag) AddedPayload() any { return t.Attributes()[attrAddedPostJSON] }

// RemovedURL is the endpoint called when the tag is removed, empty when
// removal should do nothing.
func (t *WebhookTag) RemovedURL() string { return t.StringAttr(attrRemovedURL) }

// RemovedPayload is the JSON payload for the remove call, nil when unset.
func (t *WebhookTag) RemovedPayload() any { return t.Attributes()[attrRemovedPostJSON] }

// WebhookPlugin handles WebhookTag events by posting their configured
// payloads.
type WebhookPlugin struct {
	Base
	poster Poster
}

// NewWebhookPlugin creates the plugin with the given poster.
func NewWebhookPlugin(poster Poster) *WebhookPlugin {
	return &WebhookPlugin{
		Base:   NewBase("webhook", TypeWebhook, portal.ColorGreen),
		poster: poster,
	}
}

// TagFactory registers WebhookTag construction with the tag registry.
func (p *WebhookPlugin) TagFactory() tag.Factory {
	return NewWebhookTag
}

// OnTagAdded posts the tag's added payload to its added URL.
func (p *WebhookPlugin) OnTagAdded(_ portal.TagEvent, t tag.Tag) error {
	wt, ok := t.(*WebhookTag)
	if !ok {
		return nil
	}
	return p.poster.PostJSON(context.Background(), wt.AddedURL(), wt.AddedPayload())
}

// OnTagRemoved posts the tag's removed payload to its removed URL, a
// silent success when no removed URL is configured.
func (p *WebhookPlugin) OnTagRemoved(_ portal.TagEvent, t tag.Tag) error {
	wt, ok := t.(*WebhookTag)
	if !ok {
		return nil
	}

	url := wt.RemovedURL()
	if url == "" {
		return nil
	}
	return p.poster.PostJSON(context.Background(), url, wt.RemovedPayload())
}

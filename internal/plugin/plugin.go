package plugin

import (
	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// Plugin is the contract every tag handler implements.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// TagType is the tag type this plugin reacts to. Empty means the
	// plugin receives events for every tag regardless of type.
	TagType() string

	// SuccessColor is the pad colour published with add-success
	// responses.
	SuccessColor() portal.Color

	// OnTagAdded handles a tag placement. A nil return signals success;
	// any error becomes an error response.
	OnTagAdded(evt portal.TagEvent, t tag.Tag) error

	// OnTagRemoved handles a tag removal, with the same outcome
	// contract as OnTagAdded.
	OnTagRemoved(evt portal.TagEvent, t tag.Tag) error
}

// FactoryProvider is implemented by plugins whose tag type needs a
// factory registered with the tag registry. The dispatcher registers it
// under the plugin's TagType at registration time.
type FactoryProvider interface {
	TagFactory() tag.Factory
}

// LongRunning is implemented by plugins whose add hook may take long
// enough that the user needs feedback. The dispatcher publishes a
// processing-started response before invoking the hook, pulsing the pad
// until the outcome response lands.
type LongRunning interface {
	LongRunning() bool
}

// Base provides the declarative half of the Plugin contract plus no-op
// hooks. Concrete plugins embed it and override the hooks they care
// about:
//
//	type WebhookPlugin struct {
//	    plugin.Base
//	}
type Base struct {
	name         string
	tagType      string
	successColor portal.Color
}

// NewBase assembles the declarative fields. tagType may be empty for
// plugins reacting to all tags; a zero successColor falls back to the
// default purple.
func NewBase(name, tagType string, successColor portal.Color) Base {
	if successColor == (portal.Color{}) {
		successColor = portal.ColorPurple
	}
	return Base{name: name, tagType: tagType, successColor: successColor}
}

// Name identifies the plugin in logs.
func (b Base) Name() string { return b.name }

// TagType is the tag type this plugin reacts to, empty for all tags.
func (b Base) TagType() string { return b.tagType }

// SuccessColor is the pad colour for add-success responses.
func (b Base) SuccessColor() portal.Color { return b.successColor }

// OnTagAdded is a no-op success by default.
func (b Base) OnTagAdded(portal.TagEvent, tag.Tag) error { return nil }

// OnTagRemoved is a no-op success by default.
func (b Base) OnTagRemoved(portal.TagEvent, tag.Tag) error { return nil }

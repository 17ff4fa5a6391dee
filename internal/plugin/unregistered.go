package plugin

import (
	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// UnregisteredPlugin reacts to tokens the system has never seen: tags
// that resolve to the Unregistered placeholder. It logs the discovery so
// an operator can pick the identifier up and register it, and turns the
// pad yellow as the visual cue for "new tag".
type UnregisteredPlugin struct {
	Base
	logger Logger
}

// NewUnregisteredPlugin creates the plugin.
func NewUnregisteredPlugin() *UnregisteredPlugin {
	return &UnregisteredPlugin{
		Base:   NewBase("unregistered", tag.TypeUnregistered, portal.ColorYellow),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the plugin.
func (p *UnregisteredPlugin) SetLogger(logger Logger) {
	p.logger = logger
}

// OnTagAdded logs the newly discovered identifier.
func (p *UnregisteredPlugin) OnTagAdded(evt portal.TagEvent, _ tag.Tag) error {
	p.logger.Info("discovered new tag", "id", evt.ID, "pad", evt.Pad.String())
	return nil
}

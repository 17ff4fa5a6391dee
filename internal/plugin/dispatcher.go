package plugin

import (
	"fmt"

	"github.com/bricknest/portal-core/internal/bus"
	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// Logger defines the logging interface used by the Dispatcher.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher registers plugins and owns the dispatch contract between the
// bus and their hooks. Register all plugins during startup, before the
// polling loop runs.
type Dispatcher struct {
	bus      *bus.Bus
	registry *tag.Registry
	logger   Logger
	plugins  []Plugin
}

// NewDispatcher creates a dispatcher bound to a bus and tag registry.
func NewDispatcher(b *bus.Bus, registry *tag.Registry) *Dispatcher {
	return &Dispatcher{
		bus:      b,
		registry: registry,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Plugins returns the names of registered plugins.
func (d *Dispatcher) Plugins() []string {
	names := make([]string, 0, len(d.plugins))
	for _, p := range d.plugins {
		names = append(names, p.Name())
	}
	return names
}

// Register wires a plugin in: its tag factory (when provided) goes into
// the registry under the plugin's declared type, and filtered dispatch
// wrappers subscribe to both tag topics.
func (d *Dispatcher) Register(p Plugin) {
	if fp, ok := p.(FactoryProvider); ok && p.TagType() != "" {
		d.registry.RegisterType(p.TagType(), fp.TagFactory())
	}

	d.bus.SubscribeTag(bus.TagAdded, d.dispatchWrapper(p, true))
	d.bus.SubscribeTag(bus.TagRemoved, d.dispatchWrapper(p, false))

	d.plugins = append(d.plugins, p)
	d.logger.Info("plugin registered", "plugin", p.Name(), "tag_type", p.TagType())
}

// dispatchWrapper builds the bus handler enforcing the dispatch contract
// for one plugin and direction.
func (d *Dispatcher) dispatchWrapper(p Plugin, added bool) bus.TagHandler {
	return func(evt portal.TagEvent, t tag.Tag) {
		// Type filter: a plugin with a declared type only sees tags of
		// that type. Plugins with no declared type see everything.
		if want := p.TagType(); want != "" && t.Type() != want {
			return
		}

		if added {
			if lr, ok := p.(LongRunning); ok && lr.LongRunning() {
				d.bus.PublishResponse(bus.HandlerProcessingStarted, bus.Response{Event: evt})
			}
		}

		err := d.invoke(p, added, evt, t)

		if added {
			d.publishAddOutcome(p, evt, err)
		} else {
			d.publishRemoveOutcome(p, evt, err)
		}
	}
}

// invoke runs a hook with panic recovery. A panic is a programming error
// in the plugin; it is logged and converted to an error outcome so the
// polling loop never sees it.
func (d *Dispatcher) invoke(p Plugin, added bool, evt portal.TagEvent, t tag.Tag) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("plugin panicked",
				"plugin", p.Name(), "id", evt.ID, "panic", r)
			err = fmt.Errorf("%w: plugin %s panicked: %v", ErrOperation, p.Name(), r)
		}
	}()

	if added {
		return p.OnTagAdded(evt, t)
	}
	return p.OnTagRemoved(evt, t)
}

func (d *Dispatcher) publishAddOutcome(p Plugin, evt portal.TagEvent, err error) {
	if err != nil {
		d.logger.Warn("tag add handling failed",
			"plugin", p.Name(), "id", evt.ID, "error", err)
		d.bus.PublishResponse(bus.HandlerAddError, bus.Response{Event: evt})
		return
	}

	color := p.SuccessColor()
	d.bus.PublishResponse(bus.HandlerAddSuccess, bus.Response{Event: evt, Color: &color})
}

func (d *Dispatcher) publishRemoveOutcome(p Plugin, evt portal.TagEvent, err error) {
	if err != nil {
		d.logger.Warn("tag remove handling failed",
			"plugin", p.Name(), "id", evt.ID, "error", err)
		d.bus.PublishResponse(bus.HandlerRemoveError, bus.Response{Event: evt})
		return
	}

	d.bus.PublishResponse(bus.HandlerRemoveSuccess, bus.Response{Event: evt})
}

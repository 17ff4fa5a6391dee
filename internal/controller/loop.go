package controller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bricknest/portal-core/internal/bus"
	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// Logger defines the logging interface used by the Loop.
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

// Metrics receives loop activity counters. Implementations must be cheap;
// the loop calls them inline.
type Metrics interface {
	PollCompleted()
	EventHandled(removed bool)
	FaultOccurred()
	ResolutionFailed()
}

// noopMetrics discards all counters.
type noopMetrics struct{}

func (noopMetrics) PollCompleted()    {}
func (noopMetrics) EventHandled(bool) {}
func (noopMetrics) FaultOccurred()    {}
func (noopMetrics) ResolutionFailed() {}

// Colors are the pad colours the loop uses for its own feedback.
type Colors struct {
	// Idle is shown on all pads at startup and after a tag is removed.
	Idle portal.Color

	// Error is flashed on a pad when resolution or a handler fails.
	Error portal.Color

	// Thinking pulses on a pad while a long-running handler executes.
	Thinking portal.Color
}

// Config tunes the loop's polling and fault behaviour.
type Config struct {
	// PollTimeout bounds each PollEvent call, and with it the loop's
	// reaction time to Stop.
	PollTimeout time.Duration

	// FaultThreshold is how many consecutive hard faults stop the loop.
	FaultThreshold int

	// RetryDelay is the backoff after a hard fault.
	RetryDelay time.Duration

	// Colors are the loop's feedback colours.
	Colors Colors
}

// Feedback pulse parameters, in firmware ticks. Tuned for a visible but
// quick response.
const (
	fadeTime   = 10
	fadePulses = 1

	flashOnTime  = 8
	flashOffTime = 8
	flashPulses  = 4
)

// Loop is the polling loop. Construct with New, run with Run on a
// dedicated goroutine, stop with Stop or by cancelling the context.
//
// The active-tag set is owned by the loop goroutine; ActiveTags,
// FaultCount and Running are synchronized accessors for cross-goroutine
// reads (the REST API's status page).
type Loop struct {
	driver   portal.Driver
	registry *tag.Registry
	bus      *bus.Bus
	cfg      Config
	logger   Logger
	metrics  Metrics

	mu      sync.Mutex
	active  map[string]portal.Pad
	faults  int
	running bool

	stopMu  sync.Mutex
	stopped bool
}

// New creates a loop and subscribes its response handlers on the bus.
func New(driver portal.Driver, registry *tag.Registry, b *bus.Bus, cfg Config) *Loop {
	l := &Loop{
		driver:   driver,
		registry: registry,
		bus:      b,
		cfg:      cfg,
		logger:   noopLogger{},
		metrics:  noopMetrics{},
		active:   make(map[string]portal.Pad),
	}
	l.subscribeResponses()
	return l
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// SetMetrics sets the metrics recorder for the loop.
func (l *Loop) SetMetrics(m Metrics) {
	l.metrics = m
}

// subscribeResponses wires handler outcomes to pad feedback. Feedback is
// best effort: a failed colour command is logged, never escalated.
func (l *Loop) subscribeResponses() {
	l.bus.SubscribeResponse(bus.HandlerAddSuccess, func(resp bus.Response) {
		if resp.Color == nil {
			return
		}
		l.fade(resp.Event.Pad, *resp.Color)
	})

	l.bus.SubscribeResponse(bus.HandlerAddError, func(resp bus.Response) {
		l.flash(resp.Event.Pad, l.cfg.Colors.Error)
	})

	l.bus.SubscribeResponse(bus.HandlerRemoveSuccess, func(resp bus.Response) {
		l.fade(resp.Event.Pad, l.cfg.Colors.Idle)
	})

	l.bus.SubscribeResponse(bus.HandlerRemoveError, func(resp bus.Response) {
		l.flash(resp.Event.Pad, l.cfg.Colors.Error)
	})

	l.bus.SubscribeResponse(bus.HandlerProcessingStarted, func(resp bus.Response) {
		c := l.cfg.Colors.Thinking
		if resp.Color != nil {
			c = *resp.Color
		}
		l.fade(resp.Event.Pad, c)
	})
}

func (l *Loop) fade(pad portal.Pad, c portal.Color) {
	if err := l.driver.FadeColor(pad, fadeTime, fadePulses, c); err != nil {
		l.logger.Warn("pad fade failed", "pad", pad.String(), "error", err)
	}
}

func (l *Loop) flash(pad portal.Pad, c portal.Color) {
	if err := l.driver.FlashColor(pad, flashOnTime, flashOffTime, flashPulses, c); err != nil {
		l.logger.Warn("pad flash failed", "pad", pad.String(), "error", err)
	}
}

// Run executes the polling loop until Stop is called, the context is
// cancelled, or consecutive hard faults reach the threshold.
//
// Returns nil on a cooperative stop and an error wrapping
// ErrFaultThreshold when the device is given up on.
func (l *Loop) Run(ctx context.Context) error {
	l.setRunning(true)
	defer l.setRunning(false)

	if err := l.driver.ChangeColor(portal.PadAll, l.cfg.Colors.Idle); err != nil {
		l.logger.Warn("setting idle colour failed", "error", err)
	}

	l.logger.Info("polling started",
		"poll_timeout", l.cfg.PollTimeout, "fault_threshold", l.cfg.FaultThreshold)

	for {
		if l.stopRequested() || ctx.Err() != nil {
			l.logger.Info("polling stopped")
			return nil
		}

		evt, ok, err := l.driver.PollEvent(l.cfg.PollTimeout)
		l.metrics.PollCompleted()

		if err != nil {
			if fatal := l.handleFault(ctx, err); fatal != nil {
				return fatal
			}
			continue
		}

		// Any successful poll, quiet or not, means the device is healthy.
		l.resetFaults()

		if !ok {
			continue
		}

		l.handleEvent(ctx, evt)
	}
}

// handleFault applies the retry policy to a hard device fault. Returns a
// non-nil error when the threshold is reached and the loop must stop.
func (l *Loop) handleFault(ctx context.Context, cause error) error {
	l.metrics.FaultOccurred()

	l.mu.Lock()
	l.faults++
	faults := l.faults
	l.mu.Unlock()

	if faults >= l.cfg.FaultThreshold {
		l.logger.Error("device fault threshold reached, stopping",
			"faults", faults, "error", cause)
		return fmt.Errorf("%w after %d consecutive faults: %w", ErrFaultThreshold, faults, cause)
	}

	l.logger.Warn("device fault, retrying",
		"faults", faults, "threshold", l.cfg.FaultThreshold, "error", cause)

	select {
	case <-time.After(l.cfg.RetryDelay):
	case <-ctx.Done():
	}
	return nil
}

// handleEvent resolves a device event and publishes the domain event. A
// resolution failure flashes the error colour on the affected pad and the
// loop keeps going; one bad tag must not halt polling.
func (l *Loop) handleEvent(ctx context.Context, evt portal.TagEvent) {
	t, err := l.registry.Resolve(ctx, evt.ID)
	if err != nil {
		l.metrics.ResolutionFailed()
		l.logger.Error("tag resolution failed",
			"id", evt.ID, "pad", evt.Pad.String(), "error", err)
		l.flash(evt.Pad, l.cfg.Colors.Error)
		return
	}

	l.mu.Lock()
	if evt.Removed {
		// Removing an identifier we never tracked is a no-op.
		delete(l.active, evt.ID)
	} else {
		l.active[evt.ID] = evt.Pad
	}
	l.mu.Unlock()

	l.metrics.EventHandled(evt.Removed)

	if evt.Removed {
		l.logger.Info("tag removed", "id", evt.ID, "pad", evt.Pad.String(), "type", t.Type())
		l.bus.PublishTag(bus.TagRemoved, evt, t)
	} else {
		l.logger.Info("tag added", "id", evt.ID, "pad", evt.Pad.String(), "type", t.Type())
		l.bus.PublishTag(bus.TagAdded, evt, t)
	}
}

// Stop requests a cooperative stop. The loop exits after completing its
// current iteration; PollTimeout bounds the wait.
func (l *Loop) Stop() {
	l.stopMu.Lock()
	l.stopped = true
	l.stopMu.Unlock()
}

func (l *Loop) stopRequested() bool {
	l.stopMu.Lock()
	defer l.stopMu.Unlock()
	return l.stopped
}

func (l *Loop) setRunning(v bool) {
	l.mu.Lock()
	l.running = v
	l.mu.Unlock()
}

func (l *Loop) resetFaults() {
	l.mu.Lock()
	l.faults = 0
	l.mu.Unlock()
}

// Running reports whether the loop is currently executing.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// FaultCount returns the current consecutive-fault counter.
func (l *Loop) FaultCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.faults
}

// ActiveTags returns a sorted snapshot of the identifiers currently
// present on the device. Safe to call from any goroutine; the result is
// eventually consistent with the loop's own view.
func (l *Loop) ActiveTags() []string {
	l.mu.Lock()
	ids := make([]string, 0, len(l.active))
	for id := range l.active {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	sort.Strings(ids)
	return ids
}

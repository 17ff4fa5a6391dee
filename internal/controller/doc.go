// Package controller runs the polling loop that turns raw portal events
// into domain events and pad-colour feedback.
//
// One dedicated goroutine owns the entire loop: it polls the driver,
// resolves identifiers against the tag registry, maintains the active-tag
// set and publishes tag.added/tag.removed on the bus. Plugin hooks run
// synchronously inside that publish, so a slow hook blocks the loop for
// its duration; the design trades head-of-line blocking for strict
// per-event ordering and a race-free device handle.
//
// The loop also subscribes to handler response topics and converts each
// outcome into pad feedback: success fades to the plugin's colour, errors
// flash the error colour, removals fade back to idle.
//
// Fault policy: a quiet poll resets the consecutive-fault counter; a hard
// I/O fault increments it and backs off briefly; reaching the threshold
// stops the loop with ErrFaultThreshold, leaving recovery to process
// supervision.
package controller

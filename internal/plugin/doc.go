// Package plugin implements the dispatch framework that connects
// independently developed tag handlers to the event bus.
//
// A Plugin declares an optional tag type (constraining which events reach
// it), a success pad colour and two hooks, OnTagAdded and OnTagRemoved.
// The Dispatcher owns the non-overridable dispatch contract: it filters
// events by the plugin's declared type, invokes the hook, and publishes
// the matching handler response. A nil hook return publishes success with
// the plugin's colour; any error publishes the error response. A panic
// inside a hook is recovered, logged as a plugin programming error and
// converted to the error response; it never reaches the polling loop.
//
// Hooks run synchronously on the polling loop's goroutine. They must not
// mutate the event or Tag they receive, and must not assume any ordering
// relative to other plugins reacting to the same event.
//
// Two plugins ship with the core: UnregisteredPlugin, which reacts to
// tokens that have no record yet, and WebhookPlugin, which posts JSON to
// configured URLs when tags of its type are placed or removed.
package plugin

// Package tag implements the tag registry, factory and persistence for
// Portal Core.
//
// A physical NFC token is identified by its UID string. A Record is the
// persisted form of a tag (SQLite-backed via Repository); a Tag is the
// behaviour-bearing runtime form, constructed from a Record by the Factory
// registered for the record's type. Plugins register their tag types at
// startup, before polling begins.
//
// Resolution is cached and reference-stable: resolving the same identifier
// twice without an intervening delete returns the same Tag instance. Tags
// are immutable by contract; callers must not mutate a resolved Tag or its
// attribute map.
//
// Two placeholder variants cover the gaps: Unregistered (no record exists,
// first time this token is seen) and UnknownType (a record exists but its
// type has no registered factory, e.g. after a plugin was removed).
package tag

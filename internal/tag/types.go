package tag

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reserved type names for the placeholder variants. Plugins must not
// register factories under these names.
const (
	TypeUnregistered = "unregistered"
	TypeUnknown      = "unknown"
)

// Record is the persisted form of a tag.
type Record struct {
	// ID is the tag UID, the unique key.
	ID string

	// Name is a human-readable label. Empty means unset.
	Name string

	// Description is free-form text. Empty means unset.
	Description string

	// Type selects which factory constructs the runtime Tag.
	Type string

	// Attr holds type-specific attributes. Persisted as a JSON object.
	Attr map[string]any

	// LastUpdated is when the record was last written.
	LastUpdated time.Time
}

// Tag is the runtime, behaviour-bearing form of a record. Implementations
// are immutable after construction; callers must not mutate the attribute
// map a Tag returns.
type Tag interface {
	// Identifier returns the tag UID. Two Tags with the same identifier
	// are the same logical tag.
	Identifier() string

	// Name returns the human-readable label, empty if unset.
	Name() string

	// Description returns the free-form description, empty if unset.
	Description() string

	// Type returns the tag's type name. Placeholders return
	// TypeUnregistered or TypeUnknown.
	Type() string

	// Attributes returns the type-specific attribute map.
	Attributes() map[string]any
}

// Factory constructs a Tag from a record's fields. Empty name/description
// mean unset. Construction fails if required attributes are missing.
type Factory func(id, name, description string, attrs map[string]any) (Tag, error)

// Base implements the common Tag fields and required-attribute validation.
// Concrete tag types embed it:
//
//	type WebhookTag struct {
//	    tag.Base
//	}
type Base struct {
	id          string
	name        string
	description string
	typeName    string
	attrs       map[string]any
}

// NewBase validates and assembles the common tag fields. Construction
// fails with ErrMissingAttributes, listing the missing keys, if any key in
// required is absent from attrs.
func NewBase(typeName, id, name, description string, attrs map[string]any, required []string) (Base, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}

	var missing []string
	for _, key := range required {
		if _, ok := attrs[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Base{}, fmt.Errorf("%w: %s", ErrMissingAttributes, strings.Join(missing, ", "))
	}

	return Base{
		id:          id,
		name:        name,
		description: description,
		typeName:    typeName,
		attrs:       attrs,
	}, nil
}

// Identifier returns the tag UID.
func (b Base) Identifier() string { return b.id }

// Name returns the human-readable label, empty if unset.
func (b Base) Name() string { return b.name }

// Description returns the free-form description, empty if unset.
func (b Base) Description() string { return b.description }

// Type returns the tag's type name.
func (b Base) Type() string { return b.typeName }

// Attributes returns the attribute map. Callers must not mutate it.
func (b Base) Attributes() map[string]any { return b.attrs }

// StringAttr returns a string attribute, or empty when absent or not a
// string.
func (b Base) StringAttr(key string) string {
	s, _ := b.attrs[key].(string)
	return s
}

// Unregistered is the placeholder for an identifier with no persisted
// record: the first time a physical token is seen.
type Unregistered struct {
	Base
}

// NewUnregistered creates the placeholder for an unknown identifier.
func NewUnregistered(id string) Unregistered {
	base, _ := NewBase(TypeUnregistered, id, "", "", nil, nil) //nolint:errcheck // No required attrs, cannot fail
	return Unregistered{Base: base}
}

// UnknownType is the placeholder for a record whose type has no registered
// factory, e.g. an orphaned record after its plugin was removed. The
// record's fields are preserved so the API can still display them.
type UnknownType struct {
	Base

	// RecordType is the type name the record carries, which nothing is
	// registered for.
	RecordType string
}

// NewUnknownType creates the placeholder for an orphaned record.
func NewUnknownType(rec Record) UnknownType {
	base, _ := NewBase(TypeUnknown, rec.ID, rec.Name, rec.Description, rec.Attr, nil) //nolint:errcheck // No required attrs, cannot fail
	return UnknownType{Base: base, RecordType: rec.Type}
}

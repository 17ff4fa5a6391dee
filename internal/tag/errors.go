package tag

import "errors"

// Domain errors for the tag package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, tag.ErrNotFound) {
//	    // no record for this identifier
//	}
var (
	// ErrNotFound is returned when no record exists for an identifier.
	ErrNotFound = errors.New("tag: not found")

	// ErrExists is returned when creating a tag whose identifier is
	// already persisted.
	ErrExists = errors.New("tag: already exists")

	// ErrInvalidArgument is returned when a create call is missing its
	// identifier or type.
	ErrInvalidArgument = errors.New("tag: invalid argument")

	// ErrUnknownType is returned when a type name has no registered
	// factory.
	ErrUnknownType = errors.New("tag: unknown type")

	// ErrMissingAttributes is returned when a tag is constructed without
	// one or more of its type's required attributes.
	ErrMissingAttributes = errors.New("tag: missing required attributes")
)

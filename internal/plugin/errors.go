package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrOperation is the domain failure a hook returns when handling a
	// tag event did not succeed. The dispatcher converts any non-nil hook
	// error into an error response, but wrapping this sentinel marks the
	// failure as expected rather than a programming error.
	ErrOperation = errors.New("plugin: operation failed")
)

// Failf builds a hook error wrapping ErrOperation.
func Failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOperation, fmt.Sprintf(format, args...))
}

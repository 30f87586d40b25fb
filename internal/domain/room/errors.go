package room

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the room id is unknown or the room has expired.
	ErrNotFound = errors.New("room not found")

	// ErrForbidden indicates the caller is not the room's creator.
	ErrForbidden = errors.New("not the room creator")
)

// ValidationError indicates malformed input. No state is mutated when one
// is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

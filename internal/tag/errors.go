package tag

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every *MalformedError.
var ErrMalformed = errors.New("malformed tag")

// MalformedError describes a tag file that is missing a field or holds a value
// that cannot be converted.
type MalformedError struct {
	Path   string
	Field  string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed tag %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed tag %s: field %s: %s", e.Path, e.Field, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

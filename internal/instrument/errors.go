package instrument

import "fmt"

// FieldNotFoundError reports a required field missing from an upstream
// payload. Normalization is all-or-nothing: a single missing field fails the
// whole record rather than producing a partially populated one.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found in payload", e.Field)
}

package engine

import (
	"errors"
	"fmt"
)

// DiffErrorCode categorizes errors that abort a diff session.
type DiffErrorCode string

const (
	// ErrCodeDanglingReference indicates a type key that is absent from its
	// module. This is corrupt extractor output, not an ABI change.
	ErrCodeDanglingReference DiffErrorCode = "DANGLING_REFERENCE"
)

// DiffError aborts the whole comparison run.
type DiffError struct {
	Code DiffErrorCode

	// Message is a human-readable description.
	Message string

	// Key is the offending linker_set_key.
	Key string

	// Side is "old" or "new".
	Side string

	// TypeStack is the path from the exported entity to Key.
	TypeStack string
}

func (e *DiffError) Error() string {
	if e.TypeStack != "" {
		return fmt.Sprintf("%s: %s (%s key %q, via %s)", e.Code, e.Message, e.Side, e.Key, e.TypeStack)
	}
	return fmt.Sprintf("%s: %s (%s key %q)", e.Code, e.Message, e.Side, e.Key)
}

// IsDanglingReference returns true if err is a dangling type reference.
// Uses errors.As to handle wrapped errors.
func IsDanglingReference(err error) bool {
	var de *DiffError
	if errors.As(err, &de) {
		return de.Code == ErrCodeDanglingReference
	}
	return false
}

func newDanglingError(side, key, stack string) *DiffError {
	return &DiffError{
		Code:      ErrCodeDanglingReference,
		Message:   "type is referenced but not defined",
		Key:       key,
		Side:      side,
		TypeStack: stack,
	}
}

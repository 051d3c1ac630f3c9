package ir

import (
	"errors"
	"fmt"
)

// KeyErrorCode categorizes module key errors.
type KeyErrorCode string

const (
	// ErrCodeDuplicateKey indicates a second node was added under an existing key.
	ErrCodeDuplicateKey KeyErrorCode = "DUPLICATE_KEY"

	// ErrCodeUnknownKey indicates a lookup for a key the module does not hold.
	ErrCodeUnknownKey KeyErrorCode = "UNKNOWN_KEY"
)

// KeyError reports a violation of per-category key uniqueness or a lookup miss.
type KeyError struct {
	Code KeyErrorCode

	// Category is the module table involved ("type", "function", ...).
	Category string

	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Code, e.Category, e.Key)
}

// IsDuplicateKey reports whether err is a duplicate key error.
func IsDuplicateKey(err error) bool {
	var ke *KeyError
	if errors.As(err, &ke) {
		return ke.Code == ErrCodeDuplicateKey
	}
	return false
}

// IsUnknownKey reports whether err is a lookup miss.
func IsUnknownKey(err error) bool {
	var ke *KeyError
	if errors.As(err, &ke) {
		return ke.Code == ErrCodeUnknownKey
	}
	return false
}

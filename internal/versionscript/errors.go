package versionscript

import (
	"errors"
	"fmt"
)

// ParseError reports malformed version script input.
type ParseError struct {
	// Line is 1-based; zero for errors not tied to a line.
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("version script line %d: %s", e.Line, e.Message)
	}
	return "version script: " + e.Message
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

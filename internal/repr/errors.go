package repr

import (
	"errors"
	"fmt"
)

// FormatError reports malformed input in a dump or report.
type FormatError struct {
	Format TextFormat

	// Path is the file being read. Empty for in-memory input.
	Path string

	// Line is 1-based; zero when the position is unknown.
	Line int

	Message string
}

func (e *FormatError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	return fmt.Sprintf("%s: malformed %s: %s", loc, e.Format, e.Message)
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// withPath stamps path onto a FormatError inside err, if any.
func withPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		fe.Path = path
	}
	return err
}

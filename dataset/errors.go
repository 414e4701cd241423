package dataset

import (
	"fmt"
)

// LoadError reports that the survey file could not be obtained or read:
// unreachable source, non-200 response, undecodable bytes or a header
// missing required columns.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports one cell that could not be coerced to its field type.
// Row is 1-based and counts data rows only (the header is row 0).
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d column %s: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

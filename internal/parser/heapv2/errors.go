package heapv2

import (
	"errors"
	"fmt"
)

// Error definitions for the parser.
var (
	// ErrUnsupportedFormat is returned when the input does not start with
	// the heap_v2 magic. No structural parsing is attempted in that case.
	ErrUnsupportedFormat = errors.New("not a heap_v2 profile")

	// ErrParseFailed is the umbrella error every structural failure
	// matches via errors.Is.
	ErrParseFailed = errors.New("heap_v2 parse failed")

	ErrMalformedHeader   = errors.New("malformed header")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrInvalidHexLiteral = errors.New("invalid hex literal")
	ErrEmptyStack        = errors.New("empty stack block")
	ErrMalformedMapEntry = errors.New("malformed mapped-library entry")
	ErrUnexpectedInput   = errors.New("unexpected input")
)

// ParseError reports a grammar failure with its position in the input.
type ParseError struct {
	// Line and Col are 1-based positions of the failure.
	Line int
	Col  int

	// Construct names the grammar rule that failed, e.g. "thread record".
	Construct string

	// Err is the underlying cause, one of the sentinel errors above or a
	// strconv failure wrapped by one of them.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s: %v", e.Line, e.Col, e.Construct, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports a match for ErrParseFailed regardless of the cause, keeping
// the outward contract binary while the cause stays inspectable.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}

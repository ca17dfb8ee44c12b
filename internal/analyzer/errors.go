package analyzer

import "errors"

var (
	// ErrUnsupportedFormat is returned when no analyzer is registered for a dump format.
	ErrUnsupportedFormat = errors.New("unsupported dump format")

	// ErrParseError is returned when parsing the heap dump fails.
	ErrParseError = errors.New("failed to parse heap dump")

	// ErrEmptyData is returned when the heap dump is empty.
	ErrEmptyData = errors.New("heap dump is empty")

	// ErrAnalysisFailed is returned when analysis fails.
	ErrAnalysisFailed = errors.New("analysis failed")
)

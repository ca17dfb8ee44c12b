package parser

import "errors"

var (
	// ErrInvalidFormat is returned when the input format is invalid.
	ErrInvalidFormat = errors.New("invalid input format")

	// ErrEmptyInput is returned when the input is empty.
	ErrEmptyInput = errors.New("empty input")

	// ErrParseFailed is returned when parsing fails.
	ErrParseFailed = errors.New("parse failed")

	// ErrUnsupportedFormat is returned when the format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInputTooLarge is returned when the input exceeds the configured limit.
	ErrInputTooLarge = errors.New("input too large")
)

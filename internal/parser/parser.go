// Package parser defines the interfaces for parsing profiler dumps.
package parser

import (
	"context"
	"io"
	"strings"

	"github.com/jeheap-analysis/pkg/model"
)

// Parser is the interface for parsing profiler dump data.
type Parser interface {
	// Parse parses dump data from the reader.
	Parse(ctx context.Context, reader io.Reader) (*model.ParseResult, error)

	// SupportedFormats returns the formats supported by this parser.
	SupportedFormats() []string

	// Name returns the name of this parser.
	Name() string
}

// Registry holds registered parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser Registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register registers a parser under each of its supported format names.
func (r *Registry) Register(p Parser) {
	for _, format := range p.SupportedFormats() {
		r.parsers[format] = p
	}
}

// Get returns a parser for the given format.
func (r *Registry) Get(format string) (Parser, bool) {
	p, ok := r.parsers[format]
	return p, ok
}

// Detect returns the format name whose magic matches the start of the
// input, or "" when no registered parser recognizes it.
func (r *Registry) Detect(head string) string {
	for format := range r.parsers {
		if strings.HasPrefix(head, format) {
			return format
		}
	}
	return ""
}

// ParseOptions holds common parsing options.
type ParseOptions struct {
	// MaxInputBytes aborts parsing when the input exceeds this size.
	// Zero means no limit; the grammar itself imposes none.
	MaxInputBytes int64
}

// DefaultParseOptions returns default parsing options.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{}
}

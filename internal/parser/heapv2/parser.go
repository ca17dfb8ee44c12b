package heapv2

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeheap-analysis/pkg/model"
)

// FormatName is the registry name of this parser.
const FormatName = "heap_v2"

// Parse decodes a complete heap_v2 dump.
//
// Inputs whose prefix is not "heap_v2" fail with ErrUnsupportedFormat
// before any structural parsing. Every other failure is a *ParseError
// matching ErrParseFailed. There is no partial result.
//
// The returned Profile shares sub-strings with input, so input stays
// reachable while the Profile is in use.
func Parse(input string) (*model.Profile, error) {
	p, _, err := ParsePrefix(input)
	return p, err
}

// ParsePrefix decodes a heap_v2 dump from the start of input and also
// returns the unconsumed remainder, normally empty for a well-formed
// dump.
func ParsePrefix(input string) (*model.Profile, string, error) {
	if !strings.HasPrefix(input, headerMagic) {
		return nil, input, ErrUnsupportedFormat
	}

	c := newCursor(input)
	p, err := parseProfile(c)
	if err != nil {
		return nil, input, err
	}
	return p, c.rest(), nil
}

// IsHeapV2Format checks if the content appears to be a heap_v2 dump.
func IsHeapV2Format(head string) bool {
	return strings.HasPrefix(head, headerMagic)
}

// Parser adapts the package to the parser.Parser interface.
type Parser struct {
	// MaxInputBytes rejects inputs larger than this when positive. The
	// grammar itself has no limit; callers wanting bounded latency set
	// one here.
	MaxInputBytes int64
}

// NewParser creates a new heap_v2 parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the whole dump from reader and decodes it.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*model.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := io.Reader(reader)
	if p.MaxInputBytes > 0 {
		r = io.LimitReader(reader, p.MaxInputBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if p.MaxInputBytes > 0 && int64(len(data)) > p.MaxInputBytes {
		return nil, fmt.Errorf("input exceeds %d bytes", p.MaxInputBytes)
	}

	profile, err := Parse(string(data))
	if err != nil {
		return nil, err
	}

	return &model.ParseResult{
		Format:   FormatName,
		Profile:  profile,
		ParsedAt: time.Now(),
	}, nil
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{FormatName}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return FormatName
}

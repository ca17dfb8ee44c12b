package heapv2

import (
	"strconv"
	"strings"
)

// hexValue decodes an optionally 0x/0X-prefixed hexadecimal literal whose
// digits may be interleaved with '_' separators, e.g. "0x00_00_00_01".
// Underscores bind to the digit before them, so a leading underscore is
// not part of the literal while trailing ones are consumed.
func (c *cursor) hexValue() (uint64, error) {
	if !c.tag("0x") {
		c.tag("0X")
	}

	start := c.pos
	digits := 0
	for c.pos < len(c.input) && isHexDigit(c.input[c.pos]) {
		digits++
		c.pos++
		for c.pos < len(c.input) && c.input[c.pos] == '_' {
			c.pos++
		}
	}
	if digits == 0 {
		return 0, c.errorf("hex literal", ErrInvalidHexLiteral)
	}

	raw := c.input[start:c.pos]
	raw = strings.TrimRight(raw, "_")
	if strings.ContainsRune(raw, '_') {
		raw = strings.ReplaceAll(raw, "_", "")
	}

	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		// Only overflow is possible here; the digit scan vouched for the
		// character class.
		c.pos = start
		return 0, c.errorf("hex literal", ErrInvalidHexLiteral)
	}
	return v, nil
}

// ParseHexLiteral decodes a complete hex-literal token. It fails when the
// token has trailing garbage, contains no digits, or overflows 64 bits.
func ParseHexLiteral(token string) (uint64, error) {
	c := newCursor(token)
	v, err := c.hexValue()
	if err != nil {
		return 0, err
	}
	if !c.eof() {
		return 0, c.errorf("hex literal", ErrInvalidHexLiteral)
	}
	return v, nil
}

package heapv2

import "strings"

// cursor is a position into the input text. All grammar rules advance it
// left to right; a rule that fails leaves restoring the position to its
// caller via save/restore of pos.
type cursor struct {
	input string
	pos   int
}

func newCursor(input string) *cursor {
	return &cursor{input: input}
}

// rest returns the unconsumed remainder of the input.
func (c *cursor) rest() string {
	return c.input[c.pos:]
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.input)
}

// tag consumes the literal if it is next and reports whether it did.
func (c *cursor) tag(lit string) bool {
	if strings.HasPrefix(c.input[c.pos:], lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

// lineEnding consumes "\n" or "\r\n".
func (c *cursor) lineEnding() bool {
	if c.tag("\n") {
		return true
	}
	return c.tag("\r\n")
}

// space1 consumes one or more spaces or tabs.
func (c *cursor) space1() bool {
	start := c.pos
	for c.pos < len(c.input) && (c.input[c.pos] == ' ' || c.input[c.pos] == '\t') {
		c.pos++
	}
	return c.pos > start
}

// digits1 consumes one or more decimal digits and returns them.
func (c *cursor) digits1() (string, bool) {
	start := c.pos
	for c.pos < len(c.input) && isDigit(c.input[c.pos]) {
		c.pos++
	}
	if c.pos == start {
		return "", false
	}
	return c.input[start:c.pos], true
}

// takeLine consumes up to (excluding) the next line terminator and
// returns the consumed text, which may be empty.
func (c *cursor) takeLine() string {
	start := c.pos
	for c.pos < len(c.input) && c.input[c.pos] != '\n' && c.input[c.pos] != '\r' {
		c.pos++
	}
	return c.input[start:c.pos]
}

// errorf wraps cause into a ParseError positioned at the cursor.
func (c *cursor) errorf(construct string, cause error) error {
	line, col := lineColAt(c.input, c.pos)
	return &ParseError{Line: line, Col: col, Construct: construct, Err: cause}
}

// lineColAt computes the 1-based line and column of a byte offset.
func lineColAt(input string, pos int) (line, col int) {
	if pos > len(input) {
		pos = len(input)
	}
	line = 1 + strings.Count(input[:pos], "\n")
	if i := strings.LastIndexByte(input[:pos], '\n'); i >= 0 {
		col = pos - i
	} else {
		col = pos + 1
	}
	return line, col
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isThreadIDChar(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '*'
}

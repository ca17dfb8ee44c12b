package heapv2

import (
	"strconv"

	"github.com/jeheap-analysis/pkg/collections"
	"github.com/jeheap-analysis/pkg/model"
)

const (
	headerMagic         = "heap_v2"
	headerPrefix        = "heap_v2/"
	mappedLibrariesMark = "MAPPED_LIBRARIES:"
)

// parseHeader decodes "heap_v2/<digits>" and returns the sampling rate.
func parseHeader(c *cursor) (uint64, error) {
	if !c.tag(headerPrefix) {
		return 0, c.errorf("header", ErrMalformedHeader)
	}
	digits, ok := c.digits1()
	if !ok {
		return 0, c.errorf("header", ErrMalformedHeader)
	}
	rate, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, c.errorf("header", ErrMalformedHeader)
	}
	return rate, nil
}

// parseThread decodes one statistics row:
//
//	t<id>: <inuse_count>: <inuse_space> [<alloc_count>: <alloc_space>]
//
// where <id> is one or more alphanumeric-or-'*' characters.
func parseThread(c *cursor) (model.Thread, error) {
	var t model.Thread

	if !c.tag("t") {
		return t, c.errorf("thread record", ErrUnexpectedInput)
	}

	idStart := c.pos
	for c.pos < len(c.input) && isThreadIDChar(c.input[c.pos]) {
		c.pos++
	}
	if c.pos == idStart {
		return t, c.errorf("thread record", ErrUnexpectedInput)
	}
	t.ID = c.input[idStart:c.pos]

	var err error
	if !c.tag(": ") {
		return t, c.errorf("thread record", ErrUnexpectedInput)
	}
	if t.InuseCount, err = parseNumber(c); err != nil {
		return t, err
	}
	if !c.tag(": ") {
		return t, c.errorf("thread record", ErrUnexpectedInput)
	}
	if t.InuseSpace, err = parseNumber(c); err != nil {
		return t, err
	}
	if !c.tag(" [") {
		return t, c.errorf("thread record", ErrUnexpectedInput)
	}
	if t.AllocCount, err = parseNumber(c); err != nil {
		return t, err
	}
	if !c.tag(": ") {
		return t, c.errorf("thread record", ErrUnexpectedInput)
	}
	if t.AllocSpace, err = parseNumber(c); err != nil {
		return t, err
	}
	if !c.tag("]") {
		return t, c.errorf("thread record", ErrUnexpectedInput)
	}

	return t, nil
}

// parseNumber decodes a decimal uint64 field of a thread record. Each field
// fails independently on a non-digit or on 64-bit overflow.
func parseNumber(c *cursor) (uint64, error) {
	digits, ok := c.digits1()
	if !ok {
		return 0, c.errorf("thread record", ErrInvalidNumber)
	}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, c.errorf("thread record", ErrInvalidNumber)
	}
	return v, nil
}

// parseStackAddrs decodes the "@" line of a stack block and returns the
// frame addresses in source order.
func parseStackAddrs(c *cursor) ([]uint64, error) {
	if !c.tag("@") {
		return nil, c.errorf("stack block", ErrUnexpectedInput)
	}

	// Scratch comes from the pool, the returned slice is an exact-size
	// copy that outlives the parse.
	scratch := collections.GetUint64Slice()
	defer collections.PutUint64Slice(scratch)

	for {
		save := c.pos
		if !c.space1() {
			break
		}
		addr, err := c.hexValue()
		if err != nil {
			c.pos = save
			break
		}
		*scratch = append(*scratch, addr)
	}
	if len(*scratch) == 0 {
		return nil, c.errorf("stack block", ErrEmptyStack)
	}

	addrs := make([]uint64, len(*scratch))
	copy(addrs, *scratch)
	return addrs, nil
}

// parseStack decodes one stack block: the address line plus its indented
// thread-record lines. A block is committed once its "@" is consumed, so
// a block with no thread rows is a hard EmptyStack failure rather than a
// section boundary.
func parseStack(c *cursor) (model.Stack, error) {
	var s model.Stack

	addrs, err := parseStackAddrs(c)
	if err != nil {
		return s, err
	}
	if !c.lineEnding() {
		return s, c.errorf("stack block", ErrUnexpectedInput)
	}

	threads, err := parseThreadLines(c)
	if err != nil {
		return s, err
	}
	if len(threads) == 0 {
		return s, c.errorf("stack block", ErrEmptyStack)
	}

	s.Addrs = addrs
	s.Threads = threads
	return s, nil
}

// parseThreadLines greedily consumes indented, line-terminated thread
// records. The repetition ends at the first line that does not open with
// whitespace and a well-formed record; a record that starts but does not
// finish on its line is a hard failure.
func parseThreadLines(c *cursor) ([]model.Thread, error) {
	var threads []model.Thread
	for {
		save := c.pos
		if !c.space1() {
			break
		}
		if c.eof() || c.input[c.pos] != 't' {
			c.pos = save
			break
		}
		t, err := parseThread(c)
		if err != nil {
			return nil, err
		}
		if !c.lineEnding() {
			return nil, c.errorf("thread record", ErrUnexpectedInput)
		}
		threads = append(threads, t)
	}
	return threads, nil
}

// parseMappedLibrary decodes one memory-map row:
//
//	<first>-<last> <perms> <offset> <major>:<minor> <inode> <path>
//
// Only the two addresses and the verbatim rest-of-line path survive; the
// fixed-width fields in between are validated and discarded.
func parseMappedLibrary(c *cursor) (model.MappedLibrary, error) {
	var m model.MappedLibrary
	var err error

	if m.First, err = c.hexValue(); err != nil {
		return m, err
	}
	if !c.tag("-") {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	if m.Last, err = c.hexValue(); err != nil {
		return m, err
	}

	// Permission flags: exactly four characters, e.g. "r--p".
	if !c.space1() {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	for i := 0; i < 4; i++ {
		if c.eof() || c.input[c.pos] == '\n' || c.input[c.pos] == '\r' {
			return m, c.errorf("mapped library", ErrMalformedMapEntry)
		}
		c.pos++
	}

	// File offset: exactly eight hex digits.
	if !c.space1() {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	for i := 0; i < 8; i++ {
		if c.eof() || !isHexDigit(c.input[c.pos]) {
			return m, c.errorf("mapped library", ErrMalformedMapEntry)
		}
		c.pos++
	}

	// Device major:minor.
	if !c.space1() {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	if _, ok := c.digits1(); !ok {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	if !c.tag(":") {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	if _, ok := c.digits1(); !ok {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}

	// Inode.
	if !c.space1() {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	if _, ok := c.digits1(); !ok {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}

	// Path: the rest of the line verbatim, embedded whitespace included.
	// Anonymous mappings leave it empty.
	if !c.space1() {
		return m, c.errorf("mapped library", ErrMalformedMapEntry)
	}
	m.Path = c.takeLine()

	return m, nil
}

// parseProfile decodes the complete document grammar. Sections run in
// fixed order; each internal repetition is greedy and never re-attempted
// with a different split.
func parseProfile(c *cursor) (*model.Profile, error) {
	rate, err := parseHeader(c)
	if err != nil {
		return nil, err
	}
	if !c.lineEnding() {
		return nil, c.errorf("header", ErrMalformedHeader)
	}

	totals, err := parseThreadLines(c)
	if err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return nil, c.errorf("totals", ErrUnexpectedInput)
	}

	var stacks []model.Stack
	for {
		if c.eof() || c.input[c.pos] != '@' {
			break
		}
		s, err := parseStack(c)
		if err != nil {
			return nil, err
		}
		stacks = append(stacks, s)
	}
	if len(stacks) == 0 {
		return nil, c.errorf("stacks", ErrUnexpectedInput)
	}

	// Blank-line tolerance between the stacks and the library table.
	for c.lineEnding() {
	}

	if !c.tag(mappedLibrariesMark) {
		return nil, c.errorf("mapped libraries", ErrUnexpectedInput)
	}
	if !c.lineEnding() {
		return nil, c.errorf("mapped libraries", ErrUnexpectedInput)
	}

	var libs []model.MappedLibrary
	for {
		save := c.pos
		m, err := parseMappedLibrary(c)
		if err != nil {
			c.pos = save
			break
		}
		if !c.lineEnding() {
			c.pos = save
			break
		}
		// Anonymous mappings never reach the result.
		if m.Path != "" {
			libs = append(libs, m)
		}
	}

	return &model.Profile{
		SamplingRate:    rate,
		Totals:          totals,
		Stacks:          stacks,
		MappedLibraries: libs,
	}, nil
}

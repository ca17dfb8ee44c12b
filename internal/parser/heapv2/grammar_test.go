package heapv2

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	c := newCursor("heap_v2/12345")
	rate, err := parseHeader(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), rate)
	assert.True(t, c.eof())
}

func TestParseHeader_MaxRate(t *testing.T) {
	c := newCursor("heap_v2/18446744073709551615")
	rate, err := parseHeader(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), rate)
}

func TestParseHeader_Malformed(t *testing.T) {
	for _, input := range []string{
		"heap_v1/4096",
		"heap_v2/",
		"heap_v2/x",
		"heap_v2:4096",
		"heap_v2/18446744073709551616", // overflows uint64
	} {
		c := newCursor(input)
		_, err := parseHeader(c)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, ErrMalformedHeader), "input %q: got %v", input, err)
	}
}

func TestParseThread(t *testing.T) {
	c := newCursor("t123: 5000: 6000 [7000: 8000]")
	th, err := parseThread(c)
	require.NoError(t, err)
	assert.Equal(t, "123", th.ID)
	assert.Equal(t, uint64(5000), th.InuseCount)
	assert.Equal(t, uint64(6000), th.InuseSpace)
	assert.Equal(t, uint64(7000), th.AllocCount)
	assert.Equal(t, uint64(8000), th.AllocSpace)
	assert.True(t, c.eof())
}

func TestParseThread_Aggregate(t *testing.T) {
	c := newCursor("t*: 5000: 6000 [7000: 9000]")
	th, err := parseThread(c)
	require.NoError(t, err)
	// The aggregate id stays the literal "*", never a number.
	assert.Equal(t, "*", th.ID)
	assert.True(t, th.IsAggregate())
	assert.Equal(t, uint64(9000), th.AllocSpace)
}

func TestParseThread_Malformed(t *testing.T) {
	for _, input := range []string{
		"x1: 1: 2 [3: 4]",   // wrong leading token
		"t: 1: 2 [3: 4]",    // empty id
		"t1: : 2 [3: 4]",    // missing count
		"t1: 1: 2 [3: 4",    // unterminated bracket
		"t1: 1: 2 (3: 4)",   // wrong bracket
		"t1: 1: -2 [3: 4]",  // negative number
		"t1: 1: 2 [3:4]",    // missing space after colon
	} {
		c := newCursor(input)
		_, err := parseThread(c)
		assert.Error(t, err, input)
	}
}

func TestParseThread_NumberOverflow(t *testing.T) {
	c := newCursor("t1: 18446744073709551616: 2 [3: 4]")
	_, err := parseThread(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidNumber))
}

func TestParseStackAddrs_PreservesOrder(t *testing.T) {
	c := newCursor("@ 0x000000000001 0x000000000002 0x000000000003 0x000000000004")
	addrs, err := parseStackAddrs(c)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4}, addrs)
}

func TestParseStackAddrs_Empty(t *testing.T) {
	c := newCursor("@\n")
	_, err := parseStackAddrs(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyStack))
}

func TestParseStack(t *testing.T) {
	c := newCursor("@ 0x4 0x3\n  t*: 2: 448 [0: 0]\n  t5: 1: 224 [0: 0]\n")
	s, err := parseStack(c)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 3}, s.Addrs)
	require.Len(t, s.Threads, 2)
	assert.Equal(t, "*", s.Threads[0].ID)
	assert.Equal(t, "5", s.Threads[1].ID)
	assert.True(t, c.eof())
}

func TestParseStack_NoThreadRows(t *testing.T) {
	c := newCursor("@ 0x4 0x3\n@ 0x1\n  t*: 1: 2 [0: 0]\n")
	_, err := parseStack(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyStack))
}

func TestParseMappedLibrary(t *testing.T) {
	c := newCursor("00000001-00000004 r--p 00000000 103:02 5000                      /usr/lib/x86_64-linux-gnu/libgcc_s.so.1")
	m, err := parseMappedLibrary(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.First)
	assert.Equal(t, uint64(4), m.Last)
	assert.Equal(t, "/usr/lib/x86_64-linux-gnu/libgcc_s.so.1", m.Path)
}

func TestParseMappedLibrary_PathWithSpaces(t *testing.T) {
	c := newCursor("7f00000000-7f00001000 r-xp 00001000 08:01 42 /opt/my app/lib file.so\n")
	m, err := parseMappedLibrary(c)
	require.NoError(t, err)
	assert.Equal(t, "/opt/my app/lib file.so", m.Path)
	assert.Equal(t, "\n", c.rest())
}

func TestParseMappedLibrary_AnonymousMapping(t *testing.T) {
	// No backing path, but a trailing space column still satisfies the
	// row shape. The assembler drops it later.
	c := newCursor("7f00000000-7f00001000 rw-p 00000000 00:00 0 ")
	m, err := parseMappedLibrary(c)
	require.NoError(t, err)
	assert.Equal(t, "", m.Path)
}

func TestParseMappedLibrary_Malformed(t *testing.T) {
	for _, input := range []string{
		"00000001 r--p 00000000 103:02 5000 /lib",          // missing range
		"00000001-00000004 r-- 00000000 103:02 5000 /lib",  // perms too short
		"00000001-00000004 r--p 000000zz 103:02 5000 /lib", // offset not hex
		"00000001-00000004 r--p 0000000 103:02 5000 /lib",  // offset too short
		"00000001-00000004 r--p 00000000 103 5000 /lib",    // missing minor
		"00000001-00000004 r--p 00000000 103:02 /lib",      // missing inode
	} {
		c := newCursor(input)
		_, err := parseMappedLibrary(c)
		assert.Error(t, err, input)
	}
}

func TestParseError_Position(t *testing.T) {
	input := "heap_v2/4096\n  t*: 1: 2 [0: 0]\n@ 0x1\n  t*: 1: bogus [0: 0]\nMAPPED_LIBRARIES:\n"
	c := newCursor(input)
	_, err := parseProfile(c)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 4, perr.Line)
	assert.Equal(t, "thread record", perr.Construct)
	assert.True(t, errors.Is(err, ErrInvalidNumber))
	assert.True(t, errors.Is(err, ErrParseFailed))
}

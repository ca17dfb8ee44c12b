// Package testutil builds synthetic heap_v2 dumps for tests.
package testutil

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ThreadStat is one thread record of a dump fixture.
type ThreadStat struct {
	ID         string
	InuseCount uint64
	InuseSpace uint64
	AllocCount uint64
	AllocSpace uint64
}

func (s ThreadStat) line() string {
	return fmt.Sprintf("  t%s: %d: %d [%d: %d]\n",
		s.ID, s.InuseCount, s.InuseSpace, s.AllocCount, s.AllocSpace)
}

// DumpBuilder assembles a syntactically valid heap_v2 document.
type DumpBuilder struct {
	rate   uint64
	totals []ThreadStat
	stacks []string
	libs   []string
}

// NewDumpBuilder creates a builder for a dump with the given sampling rate.
func NewDumpBuilder(rate uint64) *DumpBuilder {
	return &DumpBuilder{rate: rate}
}

// Total appends a whole-process thread record. The aggregate record uses
// ID "*".
func (b *DumpBuilder) Total(s ThreadStat) *DumpBuilder {
	b.totals = append(b.totals, s)
	return b
}

// Stack appends a stack block with the given addresses, innermost first.
func (b *DumpBuilder) Stack(addrs []uint64, threads ...ThreadStat) *DumpBuilder {
	var sb strings.Builder
	sb.WriteString("@")
	for _, a := range addrs {
		fmt.Fprintf(&sb, " 0x%x", a)
	}
	sb.WriteString("\n")
	for _, t := range threads {
		sb.WriteString(t.line())
	}
	b.stacks = append(b.stacks, sb.String())
	return b
}

// Library appends one memory-map row covering [first, last).
func (b *DumpBuilder) Library(first, last uint64, path string) *DumpBuilder {
	b.libs = append(b.libs, fmt.Sprintf("%08x-%08x r-xp 00000000 08:01 12345 %s\n", first, last, path))
	return b
}

// String renders the complete dump text.
func (b *DumpBuilder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "heap_v2/%d\n", b.rate)
	for _, t := range b.totals {
		sb.WriteString(t.line())
	}
	for _, s := range b.stacks {
		sb.WriteString(s)
	}
	sb.WriteString("MAPPED_LIBRARIES:\n")
	for _, l := range b.libs {
		sb.WriteString(l)
	}
	return sb.String()
}

// SampleDump returns a small two-stack dump with one mapped library.
// Stack bytes sum to the 700 recorded in the totals.
func SampleDump() string {
	return NewDumpBuilder(131072).
		Total(ThreadStat{ID: "*", InuseCount: 3, InuseSpace: 700, AllocCount: 10, AllocSpace: 2000}).
		Total(ThreadStat{ID: "7", InuseCount: 2, InuseSpace: 500, AllocCount: 6, AllocSpace: 1200}).
		Total(ThreadStat{ID: "9", InuseCount: 1, InuseSpace: 200, AllocCount: 4, AllocSpace: 800}).
		Stack([]uint64{0x30, 0x20, 0x10},
			ThreadStat{ID: "*", InuseCount: 2, InuseSpace: 500, AllocCount: 5, AllocSpace: 1000},
			ThreadStat{ID: "7", InuseCount: 2, InuseSpace: 500, AllocCount: 5, AllocSpace: 1000}).
		Stack([]uint64{0x40, 0x20, 0x10},
			ThreadStat{ID: "*", InuseCount: 1, InuseSpace: 200, AllocCount: 5, AllocSpace: 1000},
			ThreadStat{ID: "9", InuseCount: 1, InuseSpace: 200, AllocCount: 5, AllocSpace: 1000}).
		Library(0x10, 0x50, "/usr/lib/libapp.so").
		String()
}

// GzipBytes compresses data with gzip.
func GzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		t.Fatalf("compress fixture: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("compress fixture: %v", err)
	}
	return buf.Bytes()
}

// WriteDumpFile writes a dump into dir and returns its path.
func WriteDumpFile(t *testing.T, dir, name, dump string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatalf("write dump fixture: %v", err)
	}
	return path
}

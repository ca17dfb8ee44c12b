// Package model defines the core data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// AggregateThreadID is the thread id jemalloc uses for the cross-thread
// aggregate row in a heap_v2 dump.
const AggregateThreadID = "*"

// Profile is a fully parsed jemalloc heap_v2 dump.
//
// A Profile is built in a single pass over the dump text and is never
// mutated afterwards. String fields (thread ids, library paths) are
// sub-strings of the input buffer, so the buffer stays reachable for as
// long as the Profile does.
type Profile struct {
	// SamplingRate is the profiler's configured byte interval between
	// allocation samples.
	SamplingRate uint64 `json:"sampling_rate"`

	// Totals holds the program-wide per-thread statistics block that
	// immediately follows the header, in source order. The first row is
	// normally the "*" aggregate.
	Totals []Thread `json:"totals"`

	// Stacks holds one entry per distinct call chain, in source order.
	Stacks []Stack `json:"stacks"`

	// MappedLibraries is the process memory map at dump time. Anonymous
	// mappings (empty path) are dropped during assembly.
	MappedLibraries []MappedLibrary `json:"mapped_libraries"`
}

// AggregateTotals returns the program-wide "*" row of the totals block.
func (p *Profile) AggregateTotals() (Thread, bool) {
	for _, t := range p.Totals {
		if t.IsAggregate() {
			return t, true
		}
	}
	return Thread{}, false
}

// LiveBytes returns the program-wide live byte count, falling back to a
// sum over the per-thread rows when no aggregate row is present.
func (p *Profile) LiveBytes() uint64 {
	if agg, ok := p.AggregateTotals(); ok {
		return agg.InuseSpace
	}
	var sum uint64
	for _, t := range p.Totals {
		sum += t.InuseSpace
	}
	return sum
}

// LiveObjects returns the program-wide live allocation count.
func (p *Profile) LiveObjects() uint64 {
	if agg, ok := p.AggregateTotals(); ok {
		return agg.InuseCount
	}
	var sum uint64
	for _, t := range p.Totals {
		sum += t.InuseCount
	}
	return sum
}

// Thread is one per-thread (or aggregate) statistics row.
type Thread struct {
	// ID is the thread id digits, or "*" for the aggregate row.
	ID string `json:"id"`

	InuseCount uint64 `json:"inuse_count"`
	InuseSpace uint64 `json:"inuse_space"`
	AllocCount uint64 `json:"alloc_count"`
	AllocSpace uint64 `json:"alloc_space"`
}

// IsAggregate reports whether this is the cross-thread "*" row.
func (t Thread) IsAggregate() bool {
	return t.ID == AggregateThreadID
}

// Stack is one recorded call chain with its per-thread breakdown.
type Stack struct {
	// Addrs holds the frame addresses innermost-first, exactly as written
	// in the dump.
	Addrs []uint64 `json:"addrs"`

	// Threads holds the per-thread plus aggregate rows attributed to this
	// chain, in source order.
	Threads []Thread `json:"threads"`
}

// Aggregate returns the stack's "*" row.
func (s Stack) Aggregate() (Thread, bool) {
	for _, t := range s.Threads {
		if t.IsAggregate() {
			return t, true
		}
	}
	return Thread{}, false
}

// InuseSpace returns the live bytes attributed to this stack, preferring
// the aggregate row over a per-thread sum.
func (s Stack) InuseSpace() uint64 {
	if agg, ok := s.Aggregate(); ok {
		return agg.InuseSpace
	}
	var sum uint64
	for _, t := range s.Threads {
		sum += t.InuseSpace
	}
	return sum
}

// InuseCount returns the live allocation count attributed to this stack.
func (s Stack) InuseCount() uint64 {
	if agg, ok := s.Aggregate(); ok {
		return agg.InuseCount
	}
	var sum uint64
	for _, t := range s.Threads {
		sum += t.InuseCount
	}
	return sum
}

// Key returns a stable identity for the call chain, used to match stacks
// across two dumps when diffing.
func (s Stack) Key() string {
	var b strings.Builder
	for i, addr := range s.Addrs {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%x", addr)
	}
	return b.String()
}

// MappedLibrary is one row of the process memory map with a backing file.
type MappedLibrary struct {
	First uint64 `json:"first"`
	Last  uint64 `json:"last"`
	Path  string `json:"path"`
}

// Contains reports whether addr falls inside the mapped range.
func (m MappedLibrary) Contains(addr uint64) bool {
	return addr >= m.First && addr < m.Last
}

// Size returns the extent of the mapping in bytes.
func (m MappedLibrary) Size() uint64 {
	if m.Last < m.First {
		return 0
	}
	return m.Last - m.First
}

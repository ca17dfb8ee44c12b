// Package symbolize attributes raw stack addresses to the mapped
// libraries recorded in a heap profile's memory-map table. No object
// files are read; resolution stops at library plus offset.
package symbolize

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jeheap-analysis/pkg/filter"
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/parallel"
)

// Resolver maps addresses to entries of a profile's memory map.
type Resolver struct {
	libs []model.MappedLibrary // sorted by First
}

// NewResolver builds a Resolver from the profile's mapped libraries.
func NewResolver(libs []model.MappedLibrary) *Resolver {
	sorted := make([]model.MappedLibrary, len(libs))
	copy(sorted, libs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].First < sorted[j].First
	})
	return &Resolver{libs: sorted}
}

// Resolve returns the library containing addr and the offset into it.
func (r *Resolver) Resolve(addr uint64) (model.MappedLibrary, uint64, bool) {
	i := sort.Search(len(r.libs), func(i int) bool {
		return r.libs[i].Last > addr
	})
	if i < len(r.libs) && r.libs[i].Contains(addr) {
		return r.libs[i], addr - r.libs[i].First, true
	}
	return model.MappedLibrary{}, 0, false
}

// FrameLabel renders addr for display: "libname+0xoffset" when the
// address falls inside a mapped library, the bare hex address otherwise.
func (r *Resolver) FrameLabel(addr uint64) string {
	if lib, off, ok := r.Resolve(addr); ok {
		return fmt.Sprintf("%s+0x%x", filepath.Base(lib.Path), off)
	}
	return fmt.Sprintf("0x%016x", addr)
}

// Labels renders a whole address chain in source order.
func (r *Resolver) Labels(addrs []uint64) []string {
	labels := make([]string, len(addrs))
	for i, addr := range addrs {
		labels[i] = r.FrameLabel(addr)
	}
	return labels
}

// LibraryUsage attributes each stack's live bytes to the library of its
// innermost resolvable frame, returning entries sorted by live bytes
// descending. Stacks with no resolvable frame are grouped under "".
func (r *Resolver) LibraryUsage(profile *model.Profile) []model.LibraryUsage {
	type acc struct {
		bytes   uint64
		objects uint64
	}

	// Attribution of one stack is independent of the others, large dumps
	// aggregate across workers.
	byPath := parallel.ParallelAggregate(context.Background(), profile.Stacks, parallel.DefaultPoolConfig(),
		func(s model.Stack) (string, acc) {
			path := ""
			for _, addr := range s.Addrs {
				if lib, _, ok := r.Resolve(addr); ok {
					path = lib.Path
					break
				}
			}
			return path, acc{bytes: s.InuseSpace(), objects: s.InuseCount()}
		},
		func(existing, next acc) acc {
			return acc{bytes: existing.bytes + next.bytes, objects: existing.objects + next.objects}
		})

	total := profile.LiveBytes()
	usage := make([]model.LibraryUsage, 0, len(byPath))
	for path, a := range byPath {
		u := model.LibraryUsage{
			Path:        path,
			Category:    filter.Classify(path).String(),
			LiveObjects: a.objects,
			LiveBytes:   a.bytes,
		}
		if total > 0 {
			u.Percent = float64(a.bytes) / float64(total) * 100
		}
		usage = append(usage, u)
	}

	sort.Slice(usage, func(i, j int) bool {
		if usage[i].LiveBytes != usage[j].LiveBytes {
			return usage[i].LiveBytes > usage[j].LiveBytes
		}
		return usage[i].Path < usage[j].Path
	})
	return usage
}

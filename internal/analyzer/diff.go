package analyzer

import (
	"sort"

	"github.com/jeheap-analysis/internal/symbolize"
	"github.com/jeheap-analysis/pkg/model"
)

// DiffProfiles computes per-stack live byte deltas between two dumps of
// the same process. Stacks are matched by their address chain; chains
// present in only one dump appear with the missing side at zero. Entries
// are sorted by absolute delta descending, truncated to topN when it is
// positive.
func DiffProfiles(before, after *model.Profile, topN int) *model.HeapDiffData {
	type pair struct {
		frames []string
		before uint64
		after  uint64
	}

	// Frame labels come from the newer dump's memory map since library
	// load addresses may have changed between dumps.
	resolver := symbolize.NewResolver(after.MappedLibraries)

	byKey := make(map[string]*pair)
	for _, s := range before.Stacks {
		byKey[s.Key()] = &pair{
			frames: resolver.Labels(s.Addrs),
			before: s.InuseSpace(),
		}
	}
	for _, s := range after.Stacks {
		p, ok := byKey[s.Key()]
		if !ok {
			p = &pair{frames: resolver.Labels(s.Addrs)}
			byKey[s.Key()] = p
		}
		p.after = s.InuseSpace()
	}

	data := &model.HeapDiffData{
		TotalBefore: before.LiveBytes(),
		TotalAfter:  after.LiveBytes(),
		Entries:     make([]model.DiffEntry, 0, len(byKey)),
	}

	for key, p := range byKey {
		delta := int64(p.after) - int64(p.before)
		if delta == 0 {
			continue
		}
		data.Entries = append(data.Entries, model.DiffEntry{
			Key:         key,
			Frames:      p.frames,
			BeforeBytes: p.before,
			AfterBytes:  p.after,
			DeltaBytes:  delta,
		})
	}

	sort.SliceStable(data.Entries, func(i, j int) bool {
		return absInt64(data.Entries[i].DeltaBytes) > absInt64(data.Entries[j].DeltaBytes)
	})

	if topN > 0 && len(data.Entries) > topN {
		data.Entries = data.Entries[:topN]
	}

	return data
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

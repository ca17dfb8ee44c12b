package statistics

import (
	"sort"

	"github.com/jeheap-analysis/pkg/model"
)

// ThreadStatsCalculator computes per-thread live-memory attribution from
// a parsed profile.
type ThreadStatsCalculator struct {
	maxThreads int
}

// ThreadStatsOption configures the ThreadStatsCalculator.
type ThreadStatsOption func(*ThreadStatsCalculator)

// WithMaxThreads sets the maximum number of threads to return.
func WithMaxThreads(n int) ThreadStatsOption {
	return func(c *ThreadStatsCalculator) {
		c.maxThreads = n
	}
}

// NewThreadStatsCalculator creates a new ThreadStatsCalculator.
func NewThreadStatsCalculator(opts ...ThreadStatsOption) *ThreadStatsCalculator {
	c := &ThreadStatsCalculator{
		maxThreads: 0, // 0 means no limit
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ThreadStatsResult holds the calculation result.
type ThreadStatsResult struct {
	Threads     []model.ThreadUsage
	LiveBytes   uint64
	LiveObjects uint64
}

// Calculate aggregates the profile's totals block into per-thread usage,
// sorted by live bytes descending. The "*" aggregate row sets the totals
// and is excluded from the per-thread list.
func (c *ThreadStatsCalculator) Calculate(profile *model.Profile) *ThreadStatsResult {
	result := &ThreadStatsResult{
		Threads:     make([]model.ThreadUsage, 0, len(profile.Totals)),
		LiveBytes:   profile.LiveBytes(),
		LiveObjects: profile.LiveObjects(),
	}

	for _, t := range profile.Totals {
		if t.IsAggregate() {
			continue
		}
		u := model.ThreadUsage{
			ThreadID:    t.ID,
			LiveObjects: t.InuseCount,
			LiveBytes:   t.InuseSpace,
		}
		if result.LiveBytes > 0 {
			u.Percent = float64(t.InuseSpace) / float64(result.LiveBytes) * 100
		}
		result.Threads = append(result.Threads, u)
	}

	sort.SliceStable(result.Threads, func(i, j int) bool {
		return result.Threads[i].LiveBytes > result.Threads[j].LiveBytes
	})

	if c.maxThreads > 0 && len(result.Threads) > c.maxThreads {
		result.Threads = result.Threads[:c.maxThreads]
	}

	return result
}

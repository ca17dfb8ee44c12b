// Package statistics provides calculations over parsed heap profiles.
package statistics

import (
	"math"
	"sort"

	"github.com/jeheap-analysis/pkg/model"
)

// TopStacksCalculator ranks call chains by live bytes.
type TopStacksCalculator struct {
	topN int
}

// TopStacksOption configures the TopStacksCalculator.
type TopStacksOption func(*TopStacksCalculator)

// WithTopN sets the number of top stacks to return.
func WithTopN(n int) TopStacksOption {
	return func(c *TopStacksCalculator) {
		c.topN = n
	}
}

// NewTopStacksCalculator creates a new TopStacksCalculator.
func NewTopStacksCalculator(opts ...TopStacksOption) *TopStacksCalculator {
	c := &TopStacksCalculator{
		topN: 15,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopStacksResult holds the calculation result.
type TopStacksResult struct {
	Stacks      []model.StackUsage
	LiveBytes   uint64
	LiveObjects uint64
}

// Calculate ranks the profile's stacks by live bytes descending and
// attaches estimated unsampled byte counts derived from the sampling
// rate. Frame labels are left to the caller (see the symbolize package).
func (c *TopStacksCalculator) Calculate(profile *model.Profile) *TopStacksResult {
	result := &TopStacksResult{
		Stacks:      make([]model.StackUsage, 0, len(profile.Stacks)),
		LiveBytes:   profile.LiveBytes(),
		LiveObjects: profile.LiveObjects(),
	}

	for _, s := range profile.Stacks {
		u := model.StackUsage{
			Addrs:       s.Addrs,
			LiveObjects: s.InuseCount(),
			LiveBytes:   s.InuseSpace(),
		}
		u.EstimatedBytes = Unsample(u.LiveObjects, u.LiveBytes, profile.SamplingRate)
		if result.LiveBytes > 0 {
			u.Percent = float64(u.LiveBytes) / float64(result.LiveBytes) * 100
		}
		result.Stacks = append(result.Stacks, u)
	}

	sort.SliceStable(result.Stacks, func(i, j int) bool {
		return result.Stacks[i].LiveBytes > result.Stacks[j].LiveBytes
	})

	if c.topN > 0 && len(result.Stacks) > c.topN {
		result.Stacks = result.Stacks[:c.topN]
	}

	return result
}

// Unsample scales sampled live bytes up to an estimate of the true heap
// usage. With a sampling interval of rate bytes, an allocation of average
// size s is observed with probability 1-exp(-s/rate), so each observed
// byte stands for 1/(1-exp(-s/rate)) real ones. Rates of 0 or 1 mean
// every allocation was recorded and no scaling applies.
func Unsample(count, space, rate uint64) float64 {
	if rate <= 1 || count == 0 {
		return float64(space)
	}
	avg := float64(space) / float64(count)
	p := 1 - math.Exp(-avg/float64(rate))
	if p <= 0 {
		return float64(space)
	}
	return float64(space) / p
}

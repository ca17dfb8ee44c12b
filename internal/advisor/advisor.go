// Package advisor derives actionable observations from heap analysis
// results.
package advisor

import (
	"fmt"

	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/profiling"
)

// Suggestion is one observation about a dump.
type Suggestion struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // info or warning
	Message  string `json:"message"`
	Frame    string `json:"frame,omitempty"`
}

// Rule inspects an analysis payload and emits suggestions.
type Rule struct {
	Name  string
	Check func(data *model.HeapAnalysisData) []Suggestion
}

// Advisor runs a rule set over heap analysis data.
type Advisor struct {
	rules []Rule
}

// NewAdvisor creates an Advisor with the default rules.
func NewAdvisor() *Advisor {
	return &Advisor{rules: defaultRules()}
}

// NewAdvisorWithRules creates an Advisor with custom rules.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{rules: rules}
}

// Advise runs every rule and collects the suggestions.
func (a *Advisor) Advise(data *model.HeapAnalysisData) []Suggestion {
	if data == nil {
		return nil
	}

	suggestions := make([]Suggestion, 0)
	for _, rule := range a.rules {
		if rule.Check != nil {
			suggestions = append(suggestions, rule.Check(data)...)
		}
	}
	return suggestions
}

func defaultRules() []Rule {
	return []Rule{
		{Name: "dominant_stack", Check: checkDominantStack},
		{Name: "thread_concentration", Check: checkThreadConcentration},
		{Name: "unresolved_frames", Check: checkUnresolvedFrames},
		{Name: "sampling_disabled", Check: checkSamplingDisabled},
	}
}

// checkDominantStack flags a single call chain holding most of the live
// bytes. In a long-running process that is the usual leak signature.
func checkDominantStack(data *model.HeapAnalysisData) []Suggestion {
	if len(data.TopStacks) == 0 {
		return nil
	}

	top := data.TopStacks[0]
	if top.Percent <= 50.0 {
		return nil
	}

	// Prefer the innermost resolved frame as the pointer to follow, bare
	// addresses give the reader nothing to search for.
	frame := ""
	for _, f := range top.Frames {
		if !profiling.IsUnresolvedFrame(f) {
			frame = f
			break
		}
	}
	if frame == "" && len(top.Frames) > 0 {
		frame = top.Frames[0]
	}
	return []Suggestion{{
		Type:     "dominant_stack",
		Severity: "warning",
		Message: fmt.Sprintf("one call chain holds %.1f%% of live bytes (%d bytes), check it for a leak",
			top.Percent, top.LiveBytes),
		Frame: frame,
	}}
}

// checkThreadConcentration flags one thread owning most of the live heap.
func checkThreadConcentration(data *model.HeapAnalysisData) []Suggestion {
	for _, ts := range data.ThreadStats {
		if ts.Percent > 60.0 {
			return []Suggestion{{
				Type:     "thread_concentration",
				Severity: "info",
				Message: fmt.Sprintf("thread %s holds %.1f%% of live bytes, its workload drives the heap",
					ts.ThreadID, ts.Percent),
			}}
		}
	}
	return nil
}

// checkUnresolvedFrames flags a large share of live bytes that could not
// be attributed to any mapped library, which usually means JIT-generated
// code or a stripped memory map.
func checkUnresolvedFrames(data *model.HeapAnalysisData) []Suggestion {
	for _, lib := range data.LibraryUsage {
		if lib.Path == "" && lib.Percent > 20.0 {
			return []Suggestion{{
				Type:     "unresolved_frames",
				Severity: "info",
				Message: fmt.Sprintf("%.1f%% of live bytes map to no library, symbolization will be incomplete",
					lib.Percent),
			}}
		}
	}
	return nil
}

// checkSamplingDisabled flags exhaustive dumps. With lg_prof_sample:0
// jemalloc records every allocation, which is accurate but slow.
func checkSamplingDisabled(data *model.HeapAnalysisData) []Suggestion {
	if data.SamplingRate > 1 {
		return nil
	}
	return []Suggestion{{
		Type:     "sampling_disabled",
		Severity: "info",
		Message:  "dump records every allocation; raise lg_prof_sample to cut profiling overhead",
	}}
}

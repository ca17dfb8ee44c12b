package flamegraph

import (
	"github.com/jeheap-analysis/internal/symbolize"
	"github.com/jeheap-analysis/pkg/model"
)

// Generator folds profile stacks into a flame graph tree.
type Generator struct {
	resolver *symbolize.Resolver
}

// NewGenerator creates a generator that labels frames through the
// given resolver. A nil resolver produces raw address labels.
func NewGenerator(resolver *symbolize.Resolver) *Generator {
	return &Generator{resolver: resolver}
}

// Generate builds the flame graph from the profile. Stacks are folded
// outermost frame first, so callers sit above callees in the tree.
func (g *Generator) Generate(profile *model.Profile) *FlameGraph {
	fg := NewFlameGraph()
	if profile == nil {
		fg.Cleanup()
		return fg
	}

	resolver := g.resolver
	if resolver == nil {
		resolver = symbolize.NewResolver(profile.MappedLibraries)
	}

	for _, stack := range profile.Stacks {
		value := stack.InuseSpace()
		if value == 0 || len(stack.Addrs) == 0 {
			continue
		}

		node := fg.Root
		node.Value += value

		// Addrs are innermost first in the dump, reverse for the tree.
		for i := len(stack.Addrs) - 1; i >= 0; i-- {
			addr := stack.Addrs[i]
			label := resolver.FrameLabel(addr)
			library := ""
			if lib, _, ok := resolver.Resolve(addr); ok {
				library = lib.Path
			}
			node = node.AddChild(label, library)
			node.Value += value
		}

		fg.TotalBytes += value
		fg.TotalStacks++
	}

	fg.CalculateMaxDepth()
	fg.Cleanup()
	return fg
}

package callgraph

import (
	"path/filepath"
	"sort"

	"github.com/jeheap-analysis/internal/symbolize"
	"github.com/jeheap-analysis/pkg/model"
)

// GeneratorOptions holds configuration options for the call graph generator.
type GeneratorOptions struct {
	// MinNodePct is the minimum live-byte percentage for a node to be kept.
	MinNodePct float64

	// MinEdgePct is the minimum live-byte percentage for an edge to be kept.
	MinEdgePct float64
}

// DefaultGeneratorOptions returns default generator options.
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		MinNodePct: 0.5,
		MinEdgePct: 0.1,
	}
}

// Generator builds allocation call graphs from parsed heap profiles.
type Generator struct {
	opts     *GeneratorOptions
	resolver *symbolize.Resolver
}

// NewGenerator creates a new call graph generator. A nil resolver is
// built from the profile's own library table at generation time.
func NewGenerator(opts *GeneratorOptions, resolver *symbolize.Resolver) *Generator {
	if opts == nil {
		opts = DefaultGeneratorOptions()
	}
	return &Generator{opts: opts, resolver: resolver}
}

// Generate builds the allocation graph of a profile. Live bytes flow
// from callers to callees; the allocation site holds the self bytes.
func (g *Generator) Generate(profile *model.Profile) *CallGraph {
	resolver := g.resolver
	if resolver == nil {
		resolver = symbolize.NewResolver(profile.MappedLibraries)
	}

	cg := NewCallGraph()

	for _, stack := range profile.Stacks {
		bytes := stack.InuseSpace()
		if bytes == 0 || len(stack.Addrs) == 0 {
			continue
		}
		cg.TotalBytes += bytes

		// Addrs are innermost first. Every frame carries the stack's
		// bytes as total weight, counted once per stack even when a
		// frame recurses.
		seen := make(map[string]bool, len(stack.Addrs))
		ids := make([]string, len(stack.Addrs))
		for i, addr := range stack.Addrs {
			name, module := g.frameOf(resolver, addr)
			id := makeNodeID(name, module)
			ids[i] = id

			self := uint64(0)
			if i == 0 {
				self = bytes
			}
			total := uint64(0)
			if !seen[id] {
				seen[id] = true
				total = bytes
			}
			cg.AddNode(name, module, self, total)
		}

		// Edges run outermost to innermost.
		for i := len(stack.Addrs) - 1; i > 0; i-- {
			cg.AddEdge(ids[i], ids[i-1], bytes)
		}
	}

	cg.CalculatePercentages()
	sortByTotalBytes(cg)
	cg.Cleanup(g.opts.MinNodePct, g.opts.MinEdgePct)

	return cg
}

// frameOf resolves an address into a node name and module.
func (g *Generator) frameOf(resolver *symbolize.Resolver, addr uint64) (string, string) {
	name := resolver.FrameLabel(addr)
	if lib, _, ok := resolver.Resolve(addr); ok {
		return name, filepath.Base(lib.Path)
	}
	return name, ""
}

func sortByTotalBytes(cg *CallGraph) {
	sort.Slice(cg.Nodes, func(i, j int) bool {
		if cg.Nodes[i].TotalBytes != cg.Nodes[j].TotalBytes {
			return cg.Nodes[i].TotalBytes > cg.Nodes[j].TotalBytes
		}
		return cg.Nodes[i].ID < cg.Nodes[j].ID
	})
	sort.Slice(cg.Edges, func(i, j int) bool {
		if cg.Edges[i].Bytes != cg.Edges[j].Bytes {
			return cg.Edges[i].Bytes > cg.Edges[j].Bytes
		}
		return cg.Edges[i].ID < cg.Edges[j].ID
	})
}

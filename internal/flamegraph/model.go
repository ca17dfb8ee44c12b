// Package flamegraph builds flame graph trees from heap profiles.
package flamegraph

// Node represents a single frame in the flame graph tree.
type Node struct {
	// Frame is the display label of the frame, either
	// "library+0xoffset" or the raw address.
	Frame string `json:"frame"`

	// Library is the mapped library path the frame resolved to,
	// empty when the address is outside every mapping.
	Library string `json:"library,omitempty"`

	// Value is the number of live bytes attributed to this frame
	// and everything below it.
	Value uint64 `json:"value"`

	// Children maps frame labels to child nodes.
	Children map[string]*Node `json:"children,omitempty"`
}

// NewNode creates a new flame graph node.
func NewNode(frame, library string) *Node {
	return &Node{
		Frame:    frame,
		Library:  library,
		Children: make(map[string]*Node),
	}
}

// AddChild returns the child with the given frame label, creating it
// if necessary.
func (n *Node) AddChild(frame, library string) *Node {
	if child, ok := n.Children[frame]; ok {
		return child
	}
	child := NewNode(frame, library)
	n.Children[frame] = child
	return child
}

// FlameGraph is the complete flame graph for one heap profile.
type FlameGraph struct {
	Root *Node `json:"root"`

	// TotalBytes is the total live bytes across all stacks.
	TotalBytes uint64 `json:"total_bytes"`

	// TotalStacks is the number of distinct stacks folded in.
	TotalStacks int `json:"total_stacks"`

	// MaxDepth is the deepest stack in the graph.
	MaxDepth int `json:"max_depth"`
}

// NewFlameGraph creates an empty flame graph.
func NewFlameGraph() *FlameGraph {
	return &FlameGraph{
		Root: NewNode("root", ""),
	}
}

// Cleanup removes empty children maps so the serialized form stays
// compact.
func (fg *FlameGraph) Cleanup() {
	cleanupNode(fg.Root)
}

func cleanupNode(node *Node) {
	if node == nil {
		return
	}
	for _, child := range node.Children {
		cleanupNode(child)
	}
	if len(node.Children) == 0 {
		node.Children = nil
	}
}

// CalculateMaxDepth walks the tree and records the maximum depth.
func (fg *FlameGraph) CalculateMaxDepth() {
	fg.MaxDepth = maxDepth(fg.Root, 0)
}

func maxDepth(node *Node, depth int) int {
	if node == nil {
		return depth
	}
	max := depth
	for _, child := range node.Children {
		if d := maxDepth(child, depth+1); d > max {
			max = d
		}
	}
	return max
}

// Package callgraph builds allocation call graphs from parsed heap profiles.
package callgraph

// Node represents one frame in the allocation graph.
type Node struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Module     string  `json:"module,omitempty"`
	SelfPct    float64 `json:"selfPct"`
	TotalPct   float64 `json:"totalPct"`
	SelfBytes  uint64  `json:"selfBytes"`
	TotalBytes uint64  `json:"totalBytes"`
}

// Edge represents a caller to callee relationship.
type Edge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
	Bytes  uint64  `json:"bytes"`
}

// CallGraph is the complete allocation graph of one dump.
type CallGraph struct {
	TotalBytes uint64  `json:"totalBytes"`
	Nodes      []*Node `json:"nodes"`
	Edges      []*Edge `json:"edges"`

	nodeMap map[string]*Node
	edgeMap map[string]*Edge
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		Nodes:   make([]*Node, 0),
		Edges:   make([]*Edge, 0),
		nodeMap: make(map[string]*Node),
		edgeMap: make(map[string]*Edge),
	}
}

// AddNode adds the given byte counts to a node, creating it on first use.
func (cg *CallGraph) AddNode(name, module string, selfBytes, totalBytes uint64) *Node {
	nodeID := makeNodeID(name, module)

	if node, exists := cg.nodeMap[nodeID]; exists {
		node.SelfBytes += selfBytes
		node.TotalBytes += totalBytes
		return node
	}

	node := &Node{
		ID:         nodeID,
		Name:       name,
		Module:     module,
		SelfBytes:  selfBytes,
		TotalBytes: totalBytes,
	}

	cg.nodeMap[nodeID] = node
	cg.Nodes = append(cg.Nodes, node)

	return node
}

// AddEdge adds bytes to the caller to callee edge, creating it on first use.
func (cg *CallGraph) AddEdge(sourceID, targetID string, bytes uint64) *Edge {
	edgeID := sourceID + "->" + targetID

	if edge, exists := cg.edgeMap[edgeID]; exists {
		edge.Bytes += bytes
		return edge
	}

	edge := &Edge{
		ID:     edgeID,
		Source: sourceID,
		Target: targetID,
		Bytes:  bytes,
	}

	cg.edgeMap[edgeID] = edge
	cg.Edges = append(cg.Edges, edge)

	return edge
}

// GetNode returns a node by name and module, or nil.
func (cg *CallGraph) GetNode(name, module string) *Node {
	return cg.nodeMap[makeNodeID(name, module)]
}

// GetEdge returns an edge by its endpoint IDs, or nil.
func (cg *CallGraph) GetEdge(sourceID, targetID string) *Edge {
	return cg.edgeMap[sourceID+"->"+targetID]
}

// CalculatePercentages derives percentage values from TotalBytes.
func (cg *CallGraph) CalculatePercentages() {
	if cg.TotalBytes == 0 {
		return
	}

	total := float64(cg.TotalBytes)

	for _, node := range cg.Nodes {
		node.SelfPct = float64(node.SelfBytes) / total * 100
		node.TotalPct = float64(node.TotalBytes) / total * 100
	}

	for _, edge := range cg.Edges {
		edge.Weight = float64(edge.Bytes) / total * 100
	}
}

// Cleanup drops the build maps and filters nodes and edges below the
// given percentage thresholds.
func (cg *CallGraph) Cleanup(minNodePct, minEdgePct float64) {
	cg.nodeMap = nil
	cg.edgeMap = nil

	if minNodePct <= 0 && minEdgePct <= 0 {
		return
	}

	keepNodes := make(map[string]bool, len(cg.Nodes))
	filteredNodes := make([]*Node, 0, len(cg.Nodes))
	for _, node := range cg.Nodes {
		if node.TotalPct >= minNodePct {
			filteredNodes = append(filteredNodes, node)
			keepNodes[node.ID] = true
		}
	}
	cg.Nodes = filteredNodes

	filteredEdges := make([]*Edge, 0, len(cg.Edges))
	for _, edge := range cg.Edges {
		if keepNodes[edge.Source] && keepNodes[edge.Target] && edge.Weight >= minEdgePct {
			filteredEdges = append(filteredEdges, edge)
		}
	}
	cg.Edges = filteredEdges
}

// makeNodeID creates a unique ID for a node.
func makeNodeID(name, module string) string {
	if module == "" {
		return name
	}
	return name + "(" + module + ")"
}

// Stats summarizes a built call graph.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	MaxSelfPct  float64
	MaxTotalPct float64
}

// GetStats returns statistics about the call graph.
func (cg *CallGraph) GetStats() *Stats {
	stats := &Stats{
		NodeCount: len(cg.Nodes),
		EdgeCount: len(cg.Edges),
	}

	for _, node := range cg.Nodes {
		if node.SelfPct > stats.MaxSelfPct {
			stats.MaxSelfPct = node.SelfPct
		}
		if node.TotalPct > stats.MaxTotalPct {
			stats.MaxTotalPct = node.TotalPct
		}
	}

	return stats
}

package graph

import "sync"

// edgeKey identifies an edge for dedup purposes. At most one edge may
// exist per (source, target, label) triple.
type edgeKey struct {
	source string
	target string
	label  string
}

// WorkflowGraph accumulates nodes and edges during a scan.
//
// AddNode and AddEdge are idempotent: inserting a duplicate id or
// (source, target, label) triple is a no-op. Membership is tracked in
// hash sets maintained incrementally on every insert, so the duplicate
// check is O(1) regardless of graph size.
type WorkflowGraph struct {
	mu       sync.Mutex
	nodes    []*WorkflowNode
	edges    []*WorkflowEdge
	nodeSet  map[string]*WorkflowNode
	edgeSet  map[edgeKey]struct{}
	Metadata Meta
}

// New creates an empty workflow graph.
func New() *WorkflowGraph {
	return &WorkflowGraph{
		nodeSet: make(map[string]*WorkflowNode),
		edgeSet: make(map[edgeKey]struct{}),
	}
}

// AddNode inserts a node unless its id is already present.
// Returns true if the node was inserted.
func (g *WorkflowGraph) AddNode(n *WorkflowNode) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodeSet[n.ID]; exists {
		return false
	}
	g.nodeSet[n.ID] = n
	g.nodes = append(g.nodes, n)
	return true
}

// AddEdge inserts an edge unless the (source, target, label) triple is
// already present. Both endpoints must already be in the graph.
// Returns true if the edge was inserted.
func (g *WorkflowGraph) AddEdge(e *WorkflowEdge) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodeSet[e.SourceID]; !ok {
		return false
	}
	if _, ok := g.nodeSet[e.TargetID]; !ok {
		return false
	}

	key := edgeKey{source: e.SourceID, target: e.TargetID, label: e.Label}
	if _, exists := g.edgeSet[key]; exists {
		return false
	}
	g.edgeSet[key] = struct{}{}
	g.edges = append(g.edges, e)
	return true
}

// HasNode reports whether a node with the given id exists.
func (g *WorkflowGraph) HasNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodeSet[id]
	return ok
}

// Node returns the node with the given id, or nil.
func (g *WorkflowGraph) Node(id string) *WorkflowNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodeSet[id]
}

// Nodes returns the nodes in insertion order. The returned slice must
// not be mutated.
func (g *WorkflowGraph) Nodes() []*WorkflowNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodes
}

// Edges returns the edges in insertion order. The returned slice must
// not be mutated.
func (g *WorkflowGraph) Edges() []*WorkflowEdge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *WorkflowGraph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *WorkflowGraph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edges)
}

// NodesByFile groups nodes by file path. The per-file slices preserve
// graph insertion order.
func (g *WorkflowGraph) NodesByFile() map[string][]*WorkflowNode {
	g.mu.Lock()
	defer g.mu.Unlock()

	byFile := make(map[string][]*WorkflowNode)
	for _, n := range g.nodes {
		byFile[n.Location.FilePath] = append(byFile[n.Location.FilePath], n)
	}
	return byFile
}

// OutEdges returns the edges originating at the given node id, in
// insertion order.
func (g *WorkflowGraph) OutEdges(id string) []*WorkflowEdge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []*WorkflowEdge
	for _, e := range g.edges {
		if e.SourceID == id {
			out = append(out, e)
		}
	}
	return out
}

package render

import (
	"strings"

	"flowsight/pkg/graph"
)

// DefaultFilterCap bounds filtered sub-graphs to a diagram-legible
// size.
const DefaultFilterCap = 100

// Filter selects a slice of a large graph. Criteria combine with AND;
// an empty criterion matches everything.
type Filter struct {
	// ModulePrefix matches nodes whose file path starts with the
	// prefix.
	ModulePrefix string
	// TableName matches database/cache nodes touching the table.
	TableName string
	// Endpoint matches api_call nodes whose endpoint contains the
	// string.
	Endpoint string
	// MaxNodes caps the sub-graph. 0 means DefaultFilterCap.
	MaxNodes int
}

func (f Filter) matches(n *graph.WorkflowNode) bool {
	if f.ModulePrefix != "" && !strings.HasPrefix(n.Location.FilePath, f.ModulePrefix) {
		return false
	}
	if f.TableName != "" && n.TableName != f.TableName {
		return false
	}
	if f.Endpoint != "" && !strings.Contains(n.Endpoint, f.Endpoint) {
		return false
	}
	return true
}

// Subgraph extracts the filtered slice: matching nodes (in insertion
// order, capped) plus every edge whose endpoints both survive. The
// result is a legible diagram source even when the full graph is above
// the visual ceiling.
func Subgraph(g *graph.WorkflowGraph, f Filter) *graph.WorkflowGraph {
	cap := f.MaxNodes
	if cap <= 0 {
		cap = DefaultFilterCap
	}

	sub := graph.New()
	for _, n := range g.Nodes() {
		if !f.matches(n) {
			continue
		}
		sub.AddNode(n)
		if sub.NodeCount() >= cap {
			break
		}
	}
	for _, e := range g.Edges() {
		if sub.HasNode(e.SourceID) && sub.HasNode(e.TargetID) {
			sub.AddEdge(e)
		}
	}
	sub.Metadata = g.Metadata
	return sub
}

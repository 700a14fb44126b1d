package graph

import (
	"encoding/json"
	"io"
)

// Export is the persisted JSON form of a graph. Evolution of this
// format is additive-only: new optional fields may be introduced, but
// existing fields are never removed or renamed.
type Export struct {
	Nodes    []*WorkflowNode `json:"nodes"`
	Edges    []*WorkflowEdge `json:"edges"`
	Metadata Meta            `json:"metadata"`
}

// ToExport snapshots the graph into its serializable form.
func (g *WorkflowGraph) ToExport() *Export {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &Export{
		Nodes:    g.nodes,
		Edges:    g.edges,
		Metadata: g.Metadata,
	}
}

// WriteJSON writes the graph as indented JSON.
func (g *WorkflowGraph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.ToExport())
}

// FromExport rebuilds a graph from its serialized form, restoring the
// membership sets so further inserts stay deduplicated.
func FromExport(ex *Export) *WorkflowGraph {
	g := New()
	for _, n := range ex.Nodes {
		g.AddNode(n)
	}
	for _, e := range ex.Edges {
		g.AddEdge(e)
	}
	g.Metadata = ex.Metadata
	return g
}

// ReadJSON reads a graph previously written by WriteJSON.
func ReadJSON(r io.Reader) (*WorkflowGraph, error) {
	var ex Export
	if err := json.NewDecoder(r).Decode(&ex); err != nil {
		return nil, err
	}
	return FromExport(&ex), nil
}

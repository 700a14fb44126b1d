// Package infer connects isolated workflow nodes into a graph. It
// runs two phases once all files are scanned: a proximity phase that
// links line-adjacent nodes within one file, and a data-flow phase
// that applies known category-adjacency rules within one file.
//
// Neither phase ever compares nodes across files, and neither performs
// an all-pairs comparison over the full node set. That bound is what
// keeps inference linear-ish at tens of thousands of nodes.
package infer

import (
	"fmt"
	"sort"
	"strconv"

	"flowsight/pkg/graph"
)

// Phase tracks where the engine is in its run.
type Phase int

const (
	NotStarted Phase = iota
	ProximityPhase
	DataFlowPhase
	Done
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case ProximityPhase:
		return "proximity"
	case DataFlowPhase:
		return "data_flow"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Defaults for the two inference windows.
const (
	DefaultMaxLineDistance = 20
	DefaultDataFlowWindow  = 50
)

// Options configures edge inference.
type Options struct {
	Enabled         bool
	ProximityEdges  bool
	DataFlowEdges   bool
	MaxLineDistance int // 0 means DefaultMaxLineDistance
	DataFlowWindow  int // 0 means DefaultDataFlowWindow
}

// DefaultOptions enables both phases with the default windows.
func DefaultOptions() Options {
	return Options{
		Enabled:         true,
		ProximityEdges:  true,
		DataFlowEdges:   true,
		MaxLineDistance: DefaultMaxLineDistance,
		DataFlowWindow:  DefaultDataFlowWindow,
	}
}

// flowRule is one category-adjacency rule applied in the data-flow
// phase. Source must precede target within the window, in the same
// file.
type flowRule struct {
	source graph.NodeType
	target graph.NodeType
	label  string
}

// flowRules are applied in order. The file_read → data_transform →
// database_write ETL chain is expressed as two pairwise rules; the
// chain emerges from the two edges.
var flowRules = []flowRule{
	{graph.APICall, graph.DatabaseWrite, "Data Ingestion"},
	{graph.DatabaseRead, graph.APICall, "Data Retrieval"},
	{graph.FileRead, graph.DataTransform, "ETL Extract"},
	{graph.DataTransform, graph.DatabaseWrite, "ETL Load"},
	{graph.DatabaseRead, graph.CacheWrite, "Cache Population"},
}

// Engine runs edge inference over a fully scanned graph.
type Engine struct {
	opts  Options
	phase Phase
}

// New creates an inference engine.
func New(opts Options) *Engine {
	if opts.MaxLineDistance == 0 {
		opts.MaxLineDistance = DefaultMaxLineDistance
	}
	if opts.DataFlowWindow == 0 {
		opts.DataFlowWindow = DefaultDataFlowWindow
	}
	return &Engine{opts: opts, phase: NotStarted}
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Run executes both phases against the graph. It must only be called
// after every file has been scanned; proximity ordering depends on the
// complete per-file node sets.
func (e *Engine) Run(g *graph.WorkflowGraph) {
	if !e.opts.Enabled {
		e.phase = Done
		return
	}

	byFile := g.NodesByFile()
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	// Deterministic edge order given a fixed discovery order.
	sort.Strings(files)

	e.phase = ProximityPhase
	if e.opts.ProximityEdges {
		for _, f := range files {
			e.proximityForFile(g, byFile[f])
		}
	}

	e.phase = DataFlowPhase
	if e.opts.DataFlowEdges {
		for _, f := range files {
			e.dataFlowForFile(g, byFile[f])
		}
	}

	e.phase = Done
}

// proximityForFile sorts one file's nodes by line and connects each
// node to its immediate successor when they are close enough. O(M log
// M) in the file's node count.
func (e *Engine) proximityForFile(g *graph.WorkflowGraph, nodes []*graph.WorkflowNode) {
	if len(nodes) < 2 {
		return
	}
	sorted := make([]*graph.WorkflowNode, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Location.LineNumber < sorted[j].Location.LineNumber
	})

	for i := 0; i < len(sorted)-1; i++ {
		src, dst := sorted[i], sorted[i+1]
		distance := dst.Location.LineNumber - src.Location.LineNumber
		if distance > e.opts.MaxLineDistance {
			continue
		}
		label := fmt.Sprintf("Sequential (%d lines)", distance)
		g.AddEdge(&graph.WorkflowEdge{
			SourceID: src.ID,
			TargetID: dst.ID,
			Label:    label,
			EdgeType: label,
			Metadata: map[string]string{"line_distance": strconv.Itoa(distance)},
		})
	}
}

// dataFlowForFile buckets one file's nodes by type and applies the
// adjacency rules within the data-flow window. O(M + k²) where k is
// the per-(file,type) bucket size.
func (e *Engine) dataFlowForFile(g *graph.WorkflowGraph, nodes []*graph.WorkflowNode) {
	byType := make(map[graph.NodeType][]*graph.WorkflowNode)
	for _, n := range nodes {
		byType[n.Type] = append(byType[n.Type], n)
	}

	for _, rule := range flowRules {
		sources := byType[rule.source]
		targets := byType[rule.target]
		if len(sources) == 0 || len(targets) == 0 {
			continue
		}
		for _, src := range sources {
			for _, dst := range targets {
				distance := dst.Location.LineNumber - src.Location.LineNumber
				if distance <= 0 || distance > e.opts.DataFlowWindow {
					continue
				}
				g.AddEdge(&graph.WorkflowEdge{
					SourceID: src.ID,
					TargetID: dst.ID,
					Label:    rule.label,
					EdgeType: rule.label,
					Metadata: map[string]string{"line_distance": strconv.Itoa(distance)},
				})
			}
		}
	}
}

package infer

import (
	"fmt"
	"testing"

	"flowsight/pkg/graph"
)

func addNode(g *graph.WorkflowGraph, file string, typ graph.NodeType, line int) *graph.WorkflowNode {
	n := &graph.WorkflowNode{
		ID:       graph.NodeID(file, typ, line),
		Type:     typ,
		Location: graph.CodeLocation{FilePath: file, LineNumber: line},
	}
	g.AddNode(n)
	return n
}

func edgeLabels(g *graph.WorkflowGraph) []string {
	var labels []string
	for _, e := range g.Edges() {
		labels = append(labels, e.Label)
	}
	return labels
}

func TestProximity_ConnectsCloseNodes(t *testing.T) {
	g := graph.New()
	a := addNode(g, "a.cs", graph.DatabaseRead, 10)
	b := addNode(g, "a.cs", graph.FileWrite, 15)

	New(Options{Enabled: true, ProximityEdges: true}).Run(g)

	if g.EdgeCount() != 1 {
		t.Fatalf("Expected 1 edge, got %d: %v", g.EdgeCount(), edgeLabels(g))
	}
	e := g.Edges()[0]
	if e.SourceID != a.ID || e.TargetID != b.ID {
		t.Error("Edge must run from the earlier to the later node")
	}
	if e.Label != "Sequential (5 lines)" {
		t.Errorf("Expected label 'Sequential (5 lines)', got %q", e.Label)
	}
	if e.Metadata["line_distance"] != "5" {
		t.Errorf("Expected line_distance 5, got %s", e.Metadata["line_distance"])
	}
}

func TestProximity_RespectsMaxLineDistance(t *testing.T) {
	g := graph.New()
	addNode(g, "a.cs", graph.DatabaseRead, 10)
	addNode(g, "a.cs", graph.FileWrite, 35)

	New(Options{Enabled: true, ProximityEdges: true}).Run(g)

	if g.EdgeCount() != 0 {
		t.Errorf("Expected no edge beyond the distance bound, got %v", edgeLabels(g))
	}
}

func TestProximity_SuccessorOnly(t *testing.T) {
	// Three close nodes form a chain, not a clique.
	g := graph.New()
	addNode(g, "a.cs", graph.UITrigger, 5)
	addNode(g, "a.cs", graph.DatabaseRead, 10)
	addNode(g, "a.cs", graph.FileWrite, 15)

	New(Options{Enabled: true, ProximityEdges: true}).Run(g)

	if g.EdgeCount() != 2 {
		t.Errorf("Expected chain of 2 edges, got %d", g.EdgeCount())
	}
}

func TestProximity_NeverCrossesFiles(t *testing.T) {
	g := graph.New()
	addNode(g, "a.cs", graph.DatabaseRead, 10)
	addNode(g, "b.cs", graph.FileWrite, 12)

	New(Options{Enabled: true, ProximityEdges: true}).Run(g)

	if g.EdgeCount() != 0 {
		t.Errorf("Proximity must not connect nodes in different files, got %v", edgeLabels(g))
	}
}

func TestDataFlow_Ingestion(t *testing.T) {
	g := graph.New()
	src := addNode(g, "sync.cs", graph.APICall, 10)
	dst := addNode(g, "sync.cs", graph.DatabaseWrite, 40)

	New(Options{Enabled: true, DataFlowEdges: true}).Run(g)

	if g.EdgeCount() != 1 {
		t.Fatalf("Expected 1 edge, got %d", g.EdgeCount())
	}
	e := g.Edges()[0]
	if e.Label != "Data Ingestion" {
		t.Errorf("Expected Data Ingestion, got %q", e.Label)
	}
	if e.SourceID != src.ID || e.TargetID != dst.ID {
		t.Error("Ingestion edge must run api_call -> database_write")
	}
}

func TestDataFlow_DirectionAndWindow(t *testing.T) {
	tests := []struct {
		name      string
		srcLine   int
		dstLine   int
		wantEdges int
	}{
		{"within window", 10, 40, 1},
		{"outside window", 10, 80, 0},
		{"wrong direction", 40, 10, 0},
		{"same line", 10, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			addNode(g, "sync.cs", graph.APICall, tt.srcLine)
			addNode(g, "sync.cs", graph.DatabaseWrite, tt.dstLine)

			New(Options{Enabled: true, DataFlowEdges: true}).Run(g)

			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("Expected %d edges, got %d", tt.wantEdges, g.EdgeCount())
			}
		})
	}
}

func TestDataFlow_ETLChain(t *testing.T) {
	g := graph.New()
	addNode(g, "etl.ts", graph.FileRead, 5)
	addNode(g, "etl.ts", graph.DataTransform, 12)
	addNode(g, "etl.ts", graph.DatabaseWrite, 20)

	New(Options{Enabled: true, DataFlowEdges: true}).Run(g)

	labels := map[string]bool{}
	for _, l := range edgeLabels(g) {
		labels[l] = true
	}
	if !labels["ETL Extract"] || !labels["ETL Load"] {
		t.Errorf("Expected the two ETL edges, got %v", edgeLabels(g))
	}
}

func TestRun_BothPhasesAndPhaseTracking(t *testing.T) {
	g := graph.New()
	addNode(g, "a.cs", graph.DatabaseRead, 10)
	addNode(g, "a.cs", graph.CacheWrite, 14)

	e := New(DefaultOptions())
	if e.Phase() != NotStarted {
		t.Errorf("Expected not_started, got %s", e.Phase())
	}
	e.Run(g)
	if e.Phase() != Done {
		t.Errorf("Expected done, got %s", e.Phase())
	}

	// Proximity gives Sequential (4 lines); data flow adds Cache
	// Population between the same pair.
	labels := map[string]bool{}
	for _, l := range edgeLabels(g) {
		labels[l] = true
	}
	if !labels["Sequential (4 lines)"] || !labels["Cache Population"] {
		t.Errorf("Expected both phases to contribute, got %v", edgeLabels(g))
	}
}

func TestRun_Disabled(t *testing.T) {
	g := graph.New()
	addNode(g, "a.cs", graph.DatabaseRead, 10)
	addNode(g, "a.cs", graph.CacheWrite, 14)

	e := New(Options{Enabled: false})
	e.Run(g)

	if g.EdgeCount() != 0 {
		t.Errorf("Expected no edges when disabled, got %d", g.EdgeCount())
	}
	if e.Phase() != Done {
		t.Errorf("Expected done, got %s", e.Phase())
	}
}

func TestRun_Idempotent(t *testing.T) {
	g := graph.New()
	addNode(g, "a.cs", graph.APICall, 10)
	addNode(g, "a.cs", graph.DatabaseWrite, 20)

	New(DefaultOptions()).Run(g)
	count := g.EdgeCount()

	New(DefaultOptions()).Run(g)
	if g.EdgeCount() != count {
		t.Errorf("Re-running inference must not duplicate edges: %d -> %d", count, g.EdgeCount())
	}
}

func TestRun_ManyFilesStaysPerFile(t *testing.T) {
	// Spread close-by node pairs across many files; the edge count must
	// scale with files, not with the square of the node count.
	g := graph.New()
	const files = 200
	for i := 0; i < files; i++ {
		file := fmt.Sprintf("src/file%03d.cs", i)
		addNode(g, file, graph.DatabaseRead, 10)
		addNode(g, file, graph.FileWrite, 15)
	}

	New(Options{Enabled: true, ProximityEdges: true}).Run(g)

	if g.EdgeCount() != files {
		t.Errorf("Expected exactly one edge per file (%d), got %d", files, g.EdgeCount())
	}
}

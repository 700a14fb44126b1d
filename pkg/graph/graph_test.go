package graph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(file string, typ NodeType, line int) *WorkflowNode {
	return &WorkflowNode{
		ID:       NodeID(file, typ, line),
		Type:     typ,
		Name:     "test node",
		Location: CodeLocation{FilePath: file, LineNumber: line},
	}
}

func TestNodeID_Deterministic(t *testing.T) {
	a := NodeID("src/users.cs", DatabaseRead, 42)
	b := NodeID("src/users.cs", DatabaseRead, 42)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)

	// Any component change produces a different id.
	assert.NotEqual(t, a, NodeID("src/orders.cs", DatabaseRead, 42))
	assert.NotEqual(t, a, NodeID("src/users.cs", DatabaseWrite, 42))
	assert.NotEqual(t, a, NodeID("src/users.cs", DatabaseRead, 43))
}

func TestAddNode_Idempotent(t *testing.T) {
	g := New()
	n := node("a.cs", DatabaseRead, 10)

	assert.True(t, g.AddNode(n))
	assert.False(t, g.AddNode(n), "second add of the same node must be a no-op")
	assert.False(t, g.AddNode(node("a.cs", DatabaseRead, 10)), "same identity, new pointer")

	assert.Equal(t, 1, g.NodeCount())
}

func TestAddEdge_Idempotent(t *testing.T) {
	g := New()
	src := node("a.cs", UITrigger, 5)
	dst := node("a.cs", DatabaseWrite, 12)
	g.AddNode(src)
	g.AddNode(dst)

	e := &WorkflowEdge{SourceID: src.ID, TargetID: dst.ID, Label: "Sequential (7 lines)"}
	assert.True(t, g.AddEdge(e))
	assert.False(t, g.AddEdge(e))
	assert.Equal(t, 1, g.EdgeCount())

	// A different label between the same endpoints is a distinct edge.
	assert.True(t, g.AddEdge(&WorkflowEdge{SourceID: src.ID, TargetID: dst.ID, Label: "Data Ingestion"}))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestAddEdge_MissingEndpoint(t *testing.T) {
	g := New()
	src := node("a.cs", UITrigger, 5)
	g.AddNode(src)

	added := g.AddEdge(&WorkflowEdge{SourceID: src.ID, TargetID: "0000000000000000", Label: "x"})
	assert.False(t, added, "edge to an unknown node must be rejected")
	assert.Equal(t, 0, g.EdgeCount())
}

func TestNodesByFile(t *testing.T) {
	g := New()
	g.AddNode(node("a.cs", DatabaseRead, 10))
	g.AddNode(node("a.cs", APICall, 20))
	g.AddNode(node("b.ts", CacheRead, 5))

	byFile := g.NodesByFile()
	assert.Len(t, byFile["a.cs"], 2)
	assert.Len(t, byFile["b.ts"], 1)
}

func TestExportRoundTrip(t *testing.T) {
	g := New()
	a := node("a.cs", DatabaseRead, 10)
	a.TableName = "User"
	b := node("a.cs", APICall, 20)
	b.Endpoint = "https://api.example.com/sync"
	g.AddNode(a)
	g.AddNode(b)
	g.AddEdge(&WorkflowEdge{SourceID: a.ID, TargetID: b.ID, Label: "Data Retrieval"})
	g.Metadata.FilesScanned = 1

	var buf bytes.Buffer
	require.NoError(t, g.WriteJSON(&buf))

	loaded, err := ReadJSON(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.NodeCount(), loaded.NodeCount())
	assert.Equal(t, g.EdgeCount(), loaded.EdgeCount())
	assert.Equal(t, 1, loaded.Metadata.FilesScanned)

	got := loaded.Node(a.ID)
	require.NotNil(t, got)
	assert.Equal(t, "User", got.TableName)
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := New()
	a := node("a.cs", UITrigger, 3)
	b := node("a.cs", DatabaseWrite, 9)
	g.AddNode(a)
	g.AddNode(b)
	g.AddEdge(&WorkflowEdge{SourceID: a.ID, TargetID: b.ID, Label: "Sequential (6 lines)"})

	var buf bytes.Buffer
	require.NoError(t, g.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.NodeCount())
	assert.Equal(t, 1, loaded.EdgeCount())

	// A reloaded graph stays idempotent: re-adding known identities is
	// still a no-op.
	assert.False(t, loaded.AddNode(node("a.cs", UITrigger, 3)))
}

package render

import (
	"fmt"
	"strings"

	"flowsight/pkg/graph"
)

// nodeShape renders a node in a type-appropriate Mermaid shape.
func nodeShape(n *graph.WorkflowNode) string {
	label := mermaidEscape(n.Name)
	switch n.Type {
	case graph.UITrigger:
		return fmt.Sprintf("n%s([\"%s\"])", n.ID, label)
	case graph.DatabaseRead, graph.DatabaseWrite:
		return fmt.Sprintf("n%s[(\"%s\")]", n.ID, label)
	case graph.APICall:
		return fmt.Sprintf("n%s{{\"%s\"}}", n.ID, label)
	default:
		return fmt.Sprintf("n%s[\"%s\"]", n.ID, label)
	}
}

// Mermaid renders the graph as a Mermaid flowchart. The caller is
// responsible for applying the render gate first; this function does
// not re-check the ceiling.
func Mermaid(g *graph.WorkflowGraph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	for _, n := range g.Nodes() {
		b.WriteString("    ")
		b.WriteString(nodeShape(n))
		b.WriteString("\n")
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "    n%s -->|%s| n%s\n", e.SourceID, mermaidEscape(e.Label), e.TargetID)
	}
	return b.String()
}

func mermaidEscape(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "|", "/")
	return s
}

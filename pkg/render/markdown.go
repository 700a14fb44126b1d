package render

import (
	"fmt"
	"sort"
	"strings"

	"flowsight/pkg/graph"
	"flowsight/pkg/story"
)

// Markdown renders the scan report: aggregate stats, node counts by
// type, and one section per synthesized workflow.
func Markdown(g *graph.WorkflowGraph, workflows []story.UIWorkflow) string {
	var b strings.Builder

	b.WriteString("# Workflow Scan Report\n\n")
	fmt.Fprintf(&b, "- Files scanned: %d\n", g.Metadata.FilesScanned)
	fmt.Fprintf(&b, "- Nodes: %d\n", g.NodeCount())
	fmt.Fprintf(&b, "- Edges: %d\n", g.EdgeCount())
	fmt.Fprintf(&b, "- Scan time: %s\n", g.Metadata.ScanTime)
	if g.Metadata.Cancelled {
		b.WriteString("- **Scan was cancelled; results are partial.**\n")
	}
	b.WriteString("\n")

	writeTypeCounts(&b, g)
	writeWorkflows(&b, workflows)
	writeErrors(&b, g)

	return b.String()
}

func writeTypeCounts(b *strings.Builder, g *graph.WorkflowGraph) {
	counts := make(map[graph.NodeType]int)
	for _, n := range g.Nodes() {
		counts[n.Type]++
	}
	if len(counts) == 0 {
		return
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	b.WriteString("## Operations by type\n\n")
	b.WriteString("| Type | Count |\n|---|---|\n")
	for _, t := range types {
		fmt.Fprintf(b, "| %s | %d |\n", t, counts[graph.NodeType(t)])
	}
	b.WriteString("\n")
}

func writeWorkflows(b *strings.Builder, workflows []story.UIWorkflow) {
	if len(workflows) == 0 {
		return
	}
	b.WriteString("## Workflows\n\n")
	for _, wf := range workflows {
		fmt.Fprintf(b, "### %s\n\n", wf.Title)
		fmt.Fprintf(b, "%s\n\n", wf.Summary)
		for i, step := range wf.Steps {
			fmt.Fprintf(b, "%d. **%s**: %s\n   `%s`\n", i+1, step.Title, step.Description, step.Technical)
		}
		fmt.Fprintf(b, "\n%s\n\n", wf.Outcome)
	}
}

func writeErrors(b *strings.Builder, g *graph.WorkflowGraph) {
	if len(g.Metadata.Errors) == 0 {
		return
	}
	b.WriteString("## Warnings\n\n")
	for _, e := range g.Metadata.Errors {
		fmt.Fprintf(b, "- %s\n", e)
	}
	b.WriteString("\n")
}

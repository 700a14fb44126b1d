package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"flowsight/pkg/graph"
	"flowsight/pkg/render"
	"flowsight/pkg/story"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export the last scan in a chosen format",
	Long: `Reloads the graph snapshot written by scan and exports it without
rescanning. Formats: json (the additive export schema), markdown (the
report with workflow narratives), mermaid (the diagram, subject to the
same size ceiling as scan).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapPath, _ := cmd.Flags().GetString("snapshot")
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		return runExport(snapPath, format, outPath)
	},
}

func runExport(snapPath, format, outPath string) error {
	g, err := graph.LoadFile(snapPath)
	if err != nil {
		return fmt.Errorf("loading snapshot (run 'flowsight scan' first): %w", err)
	}

	var content string
	switch strings.ToLower(format) {
	case "json":
		var b strings.Builder
		if err := g.WriteJSON(&b); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		content = b.String()
	case "markdown", "md":
		workflows := story.New(0).Synthesize(g)
		content = render.Markdown(g, workflows)
	case "mermaid", "mmd":
		decision := render.Decide(g.NodeCount(), 0)
		if !decision.Visual {
			fmt.Fprintln(os.Stderr, decision.Notice)
			return fmt.Errorf("graph too large to render; use 'flowsight graph' with a filter")
		}
		content = render.Mermaid(g)
	default:
		return fmt.Errorf("unknown format %q (expected json, markdown, or mermaid)", format)
	}

	if outPath == "" || outPath == "-" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Printf("Exported %s to %s\n", format, outPath)
	return nil
}

func init() {
	exportCmd.Flags().String("snapshot", defaultSnapshotPath, "Graph snapshot path")
	exportCmd.Flags().StringP("format", "f", "json", "Output format: json, markdown, or mermaid")
	exportCmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")
	RootCmd.AddCommand(exportCmd)
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flowsight/pkg/graph"
	"flowsight/pkg/render"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Render a (filtered) diagram view of the last scan",
	Long: `Reloads the graph snapshot written by scan and renders it as a
Mermaid diagram. For large graphs, use --module, --table, or
--endpoint to extract a legible slice; filters combine with AND.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapPath, _ := cmd.Flags().GetString("snapshot")
		module, _ := cmd.Flags().GetString("module")
		tableName, _ := cmd.Flags().GetString("table")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		maxNodes, _ := cmd.Flags().GetInt("max-nodes")
		outPath, _ := cmd.Flags().GetString("out")
		return runGraph(snapPath, module, tableName, endpoint, maxNodes, outPath)
	},
}

func runGraph(snapPath, module, tableName, endpoint string, maxNodes int, outPath string) error {
	g, err := graph.LoadFile(snapPath)
	if err != nil {
		return fmt.Errorf("loading snapshot (run 'flowsight scan' first): %w", err)
	}

	filtered := module != "" || tableName != "" || endpoint != ""
	if filtered {
		g = render.Subgraph(g, render.Filter{
			ModulePrefix: module,
			TableName:    tableName,
			Endpoint:     endpoint,
			MaxNodes:     maxNodes,
		})
	} else {
		decision := render.Decide(g.NodeCount(), 0)
		if !decision.Visual {
			fmt.Fprintln(os.Stderr, decision.Notice)
			return fmt.Errorf("graph too large to render; filter with --module, --table, or --endpoint")
		}
	}

	diagram := render.Mermaid(g)
	if outPath == "" || outPath == "-" {
		fmt.Print(diagram)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(diagram), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Printf("Diagram written to %s (%d nodes, %d edges)\n", outPath, g.NodeCount(), g.EdgeCount())
	return nil
}

func init() {
	graphCmd.Flags().String("snapshot", defaultSnapshotPath, "Graph snapshot path")
	graphCmd.Flags().String("module", "", "Keep nodes whose file path starts with this prefix")
	graphCmd.Flags().String("table", "", "Keep nodes touching this table")
	graphCmd.Flags().String("endpoint", "", "Keep api_call nodes whose endpoint contains this")
	graphCmd.Flags().Int("max-nodes", 0, "Cap for the filtered sub-graph (0 = default)")
	graphCmd.Flags().StringP("out", "o", "", "Write the diagram to a file instead of stdout")
	RootCmd.AddCommand(graphCmd)
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"flowsight/internal/config"
	"flowsight/internal/log"
	"flowsight/pkg/engine"
	"flowsight/pkg/graph"
	"flowsight/pkg/render"
)

// defaultSnapshotPath is where scan persists its graph for the
// workflows and graph commands to reload.
const defaultSnapshotPath = ".flowsight/graph.msgpack"

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a source tree and build the workflow graph",
	Long: `Walks the source tree, extracts workflow operations (database,
API, file, queue, cache, transform, UI trigger), infers the edges
between them, and writes the graph as JSON, markdown, and a Mermaid
diagram. A binary snapshot is saved for the workflows and graph
commands. Interrupting the scan (Ctrl-C) keeps the partial graph.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		outDir, _ := cmd.Flags().GetString("out")
		workers, _ := cmd.Flags().GetInt("workers")
		verbose, _ := cmd.Flags().GetBool("verbose")
		noEdges, _ := cmd.Flags().GetBool("no-edges")
		return runScan(root, outDir, workers, verbose, noEdges)
	},
}

func runScan(root, outDir string, workers int, verbose, noEdges bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if noEdges {
		cfg.EdgeInference.Enabled = false
	}

	logger := log.Default()
	if verbose || cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	eng := engine.New(cfg)
	eng.SetLogger(logger)

	spinner := log.NewProgressSpinner("scanning...")
	spinner.Start()
	eng.OnProgress(func(p engine.Progress) {
		spinner.Message(fmt.Sprintf("scanning %d/%d files (%d nodes)",
			p.FilesScanned, p.TotalFiles, p.NodesFound))
	})

	// Ctrl-C stops the scan cooperatively; the partial graph is kept.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := eng.Scan(ctx, root)
	spinner.Stop()
	if err != nil {
		return err
	}

	if result.Cancelled {
		fmt.Fprintln(os.Stderr, "scan interrupted; writing partial graph")
	}

	if err := writeOutputs(outDir, result); err != nil {
		return err
	}

	printSummary(result)
	return nil
}

// writeOutputs persists the snapshot plus the JSON/markdown exports,
// and the Mermaid diagram when the graph is under the visual ceiling.
func writeOutputs(outDir string, result *engine.ScanResult) error {
	snapPath := filepath.Join(outDir, defaultSnapshotPath)
	if err := os.MkdirAll(filepath.Dir(snapPath), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := graph.SaveFile(result.Graph, snapPath); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	jsonPath := filepath.Join(outDir, "graph.json")
	f, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", jsonPath, err)
	}
	if err := result.Graph.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", jsonPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	mdPath := filepath.Join(outDir, "graph.md")
	md := render.Markdown(result.Graph, result.Workflows)
	if err := os.WriteFile(mdPath, []byte(md), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", mdPath, err)
	}

	if result.Render.Visual {
		mmdPath := filepath.Join(outDir, "graph.mmd")
		if err := os.WriteFile(mmdPath, []byte(render.Mermaid(result.Graph)), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", mmdPath, err)
		}
	} else if result.Render.Notice != "" {
		fmt.Fprintln(os.Stderr, result.Render.Notice)
		fmt.Fprintln(os.Stderr, "use 'flowsight graph --module <prefix>' to render a filtered view")
	}

	return nil
}

func printSummary(result *engine.ScanResult) {
	g := result.Graph

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Files scanned", g.Metadata.FilesScanned})
	t.AppendRow(table.Row{"Nodes", g.NodeCount()})
	t.AppendRow(table.Row{"Edges", g.EdgeCount()})
	t.AppendRow(table.Row{"Schemas", result.Registry.Len()})
	t.AppendRow(table.Row{"Workflows", len(result.Workflows)})
	t.AppendRow(table.Row{"Warnings", len(result.Errors)})
	t.AppendRow(table.Row{"Elapsed", result.Elapsed.Round(time.Millisecond)})
	t.Render()

	counts := map[graph.NodeType]int{}
	for _, n := range g.Nodes() {
		counts[n.Type]++
	}
	if len(counts) > 0 {
		types := make([]string, 0, len(counts))
		for typ := range counts {
			types = append(types, string(typ))
		}
		sort.Strings(types)

		tt := table.NewWriter()
		tt.SetOutputMirror(os.Stdout)
		tt.SetStyle(table.StyleLight)
		tt.AppendHeader(table.Row{"Node type", "Count"})
		for _, typ := range types {
			tt.AppendRow(table.Row{typ, counts[graph.NodeType(typ)]})
		}
		tt.Render()
	}
}

func init() {
	scanCmd.Flags().StringP("out", "o", ".", "Output directory for graph files")
	scanCmd.Flags().Int("workers", 0, "Parallel scan workers (0 = GOMAXPROCS)")
	scanCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
	scanCmd.Flags().Bool("no-edges", false, "Skip edge inference")
	RootCmd.AddCommand(scanCmd)
}

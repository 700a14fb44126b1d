package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flowsight/pkg/graph"
	"flowsight/pkg/story"
)

// workflowsCmd represents the workflows command
var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Narrate the user-facing workflows from the last scan",
	Long: `Reloads the graph snapshot written by scan and narrates every
workflow that starts at a UI trigger: what the user does, what the
system does in response, and what the workflow ends with.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapPath, _ := cmd.Flags().GetString("snapshot")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		steps, _ := cmd.Flags().GetInt("max-steps")
		return runWorkflows(snapPath, jsonOutput, steps)
	},
}

func runWorkflows(snapPath string, jsonOutput bool, steps int) error {
	g, err := graph.LoadFile(snapPath)
	if err != nil {
		return fmt.Errorf("loading snapshot (run 'flowsight scan' first): %w", err)
	}

	workflows := story.New(steps).Synthesize(g)

	if jsonOutput {
		data, err := json.MarshalIndent(workflows, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(workflows) == 0 {
		fmt.Println("No UI-triggered workflows found.")
		return nil
	}

	for i, wf := range workflows {
		fmt.Printf("=== Workflow %d: %s ===\n\n", i+1, wf.Title)
		fmt.Printf("%s\n\n", wf.Summary)
		for j, step := range wf.Steps {
			fmt.Printf("  %d. %s\n", j+1, step.Description)
			fmt.Printf("     %s\n", step.Technical)
		}
		fmt.Printf("\n%s\n\n", wf.Outcome)
	}

	if g.Metadata.Cancelled {
		fmt.Fprintln(os.Stderr, "note: the snapshot came from an interrupted scan; workflows may be incomplete")
	}
	return nil
}

func init() {
	workflowsCmd.Flags().String("snapshot", defaultSnapshotPath, "Graph snapshot path")
	workflowsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	workflowsCmd.Flags().Int("max-steps", 0, "Step cap per workflow (0 = default)")
	RootCmd.AddCommand(workflowsCmd)
}

package engine

import (
	"time"

	"flowsight/pkg/graph"
	"flowsight/pkg/render"
	"flowsight/pkg/schema"
	"flowsight/pkg/story"
)

// Progress is one engine progress report. The callback is the sole
// coupling point to whatever transport the caller owns.
type Progress struct {
	FilesScanned int
	TotalFiles   int
	NodesFound   int
	Message      string
}

// ProgressFunc receives progress reports. It may be called from
// multiple worker goroutines; the engine serializes calls.
type ProgressFunc func(Progress)

// ScanResult is everything a scan run produces. The graph and registry
// are owned by the run and never shared across scans.
type ScanResult struct {
	Graph     *graph.WorkflowGraph
	Registry  *schema.Registry
	Workflows []story.UIWorkflow
	Render    render.Decision
	Elapsed   time.Duration
	Errors    []ScanError
	Cancelled bool
}

// Package render decides which output artifacts are safe to produce
// for a graph of a given size, and generates them. JSON and markdown
// are always produced; the visual artifact is gated because layout
// cost is superlinear and unreliable on very large graphs.
package render

import "fmt"

// DefaultNodeCeiling is the node count above which visual rendering is
// skipped.
const DefaultNodeCeiling = 5000

// Decision states which artifacts to produce. When Visual is false,
// Notice carries the structured RenderSkipped explanation; it must be
// surfaced to the caller, not silently dropped.
type Decision struct {
	JSON     bool   `json:"json"`
	Markdown bool   `json:"markdown"`
	Visual   bool   `json:"visual"`
	Notice   string `json:"notice,omitempty"`
}

// Decide gates artifacts on graph size. ceiling <= 0 means
// DefaultNodeCeiling.
func Decide(nodeCount, ceiling int) Decision {
	if ceiling <= 0 {
		ceiling = DefaultNodeCeiling
	}
	d := Decision{JSON: true, Markdown: true, Visual: nodeCount < ceiling}
	if !d.Visual {
		d.Notice = fmt.Sprintf(
			"visual rendering skipped: %d nodes meets or exceeds the ceiling of %d; request a filtered sub-graph instead",
			nodeCount, ceiling)
	}
	return d
}

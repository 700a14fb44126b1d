// Package graph defines the workflow graph model: detected operations
// (nodes), inferred relationships (edges), and the deduplicating
// accumulator that collects them during a scan.
package graph

import "time"

// NodeType categorizes a detected operation.
type NodeType string

const (
	DatabaseRead   NodeType = "database_read"
	DatabaseWrite  NodeType = "database_write"
	APICall        NodeType = "api_call"
	FileRead       NodeType = "file_read"
	FileWrite      NodeType = "file_write"
	MessageSend    NodeType = "message_send"
	MessageReceive NodeType = "message_receive"
	DataTransform  NodeType = "data_transform"
	CacheRead      NodeType = "cache_read"
	CacheWrite     NodeType = "cache_write"
	UITrigger      NodeType = "ui_trigger"
)

// UnknownValue is the sentinel used when context resolution (table
// name, endpoint, queue) fails every strategy. Nodes are still emitted.
const UnknownValue = "Unknown"

// CodeLocation points at the line where a pattern matched.
type CodeLocation struct {
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"` // 1-based
}

// WorkflowNode is a single detected operation.
//
// ID is deterministic: the same (file, type, line) always hashes to the
// same id, so two scans of an unchanged tree produce identical id sets.
type WorkflowNode struct {
	ID          string       `json:"id"`
	Type        NodeType     `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Location    CodeLocation `json:"location"`

	// Category-specific optional fields.
	TableName  string `json:"table_name,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	HTTPMethod string `json:"http_method,omitempty"`
	QueueName  string `json:"queue_name,omitempty"`

	CodeSnippet string            `json:"code_snippet,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// WorkflowEdge is an inferred relationship between two nodes.
// EdgeType carries the same semantic value as Label for machine
// filtering; Label is the human-facing string.
type WorkflowEdge struct {
	SourceID string            `json:"source_id"`
	TargetID string            `json:"target_id"`
	Label    string            `json:"label"`
	EdgeType string            `json:"edge_type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Meta holds aggregate information about a scan run.
type Meta struct {
	FilesScanned int           `json:"files_scanned"`
	ScanTime     time.Duration `json:"scan_time"`
	Errors       []string      `json:"errors,omitempty"`
	Cancelled    bool          `json:"cancelled,omitempty"`
}

package engine

import "fmt"

// ErrorKind classifies a recovered scan condition. Extraction
// ambiguity is not recorded here: an ambiguous node is emitted with
// the sentinel value instead, which is its own marker.
type ErrorKind string

const (
	// FileAccess covers unreadable, binary, and oversized files. The
	// file is skipped and the scan continues.
	FileAccess ErrorKind = "file_access"
	// RegistryCollision records two declarations claiming one alias.
	// First match wins.
	RegistryCollision ErrorKind = "registry_collision"
	// Cancellation marks a scan aborted between files. The partial
	// graph is still returned.
	Cancellation ErrorKind = "cancellation"
)

// ScanError is one recovered condition aggregated into
// ScanResult.Errors. Only configuration errors abort a run; everything
// recorded here degraded gracefully.
type ScanError struct {
	Kind    ErrorKind `json:"kind"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message"`
}

func (e ScanError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

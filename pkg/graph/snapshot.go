package graph

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible layout. Bump only when the msgpack shape changes.
const snapshotVersion = 1

// snapshot is the msgpack on-disk form of a scanned graph. It lets the
// workflows/graph commands reload a scan without rescanning the tree.
type snapshot struct {
	Version int     `msgpack:"version"`
	Graph   *Export `msgpack:"graph"`
}

// Save writes the graph snapshot to w using msgpack.
func (g *WorkflowGraph) Save(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(snapshot{Version: snapshotVersion, Graph: g.ToExport()})
}

// Load restores a graph from a msgpack snapshot.
func Load(r io.Reader) (*WorkflowGraph, error) {
	var snap snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return FromExport(snap.Graph), nil
}

// SaveFile writes the snapshot to the given path.
func SaveFile(g *WorkflowGraph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()
	return g.Save(f)
}

// LoadFile reads a snapshot from the given path.
func LoadFile(path string) (*WorkflowGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

package graph

import (
	"encoding/hex"
	"fmt"

	"github.com/minio/highwayhash"
)

// idKey is the fixed HighwayHash key for node ids. It must never
// change: node ids are a compatibility contract with exported graphs.
var idKey = func() []byte {
	k, err := hex.DecodeString("666c6f77736967687420776f726b666c6f77206e6f6465206964206b65792e2e")
	if err != nil {
		panic(err)
	}
	return k
}()

// NodeID derives the deterministic id for a node at (file, type, line).
// Identical inputs always yield the same id across runs and hosts.
func NodeID(filePath string, nodeType NodeType, line int) string {
	payload := fmt.Sprintf("%s|%s|%d", filePath, nodeType, line)
	sum := highwayhash.Sum64([]byte(payload), idKey)
	return fmt.Sprintf("%016x", sum)
}

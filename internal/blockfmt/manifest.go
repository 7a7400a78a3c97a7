package blockfmt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sisatech/toml"

	"github.com/minio/gwalker/internal/gwerr"
)

// BlockRange is the disjoint vertex-id range [Lo, Hi) a block owns.
type BlockRange struct {
	Lo uint32 `toml:"lo"`
	Hi uint32 `toml:"hi"`
}

// Manifest is manifest.toml: everything the scheduler needs to open a
// partitioned graph without re-deriving it from the block files.
type Manifest struct {
	V          uint32       `toml:"v"`
	B          int          `toml:"b"`
	ChunkBytes int          `toml:"chunk_bytes"`
	BlockBytes int64        `toml:"block_bytes"`
	Blocks     []BlockRange `toml:"block_ranges"`
}

// Dir returns the conventional <file>_block/ directory for a given
// graph input path.
func Dir(graphFile string) string {
	return graphFile + "_block"
}

func manifestPath(dir string) string { return filepath.Join(dir, "manifest.toml") }

// BlockOfPath is the conventional path of the vertex->block map within
// a block directory.
func BlockOfPath(dir string) string { return blockOfPath(dir) }
func blockOfPath(dir string) string { return filepath.Join(dir, "block_of.u8") }
// BlockAdjPath is the conventional path of block k's adjacency file
// within a block directory.
func BlockAdjPath(dir string, k int) string { return blockAdjPath(dir, k) }
func blockAdjPath(dir string, k int) string {
	return filepath.Join(dir, fmt.Sprintf("block_%d.adj", k))
}
func blockIdxPath(dir string, k int) string {
	return filepath.Join(dir, fmt.Sprintf("block_%d.idx", k))
}

// WriteManifest serializes m to <dir>/manifest.toml.
func WriteManifest(dir string, m Manifest) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(m); err != nil {
		return gwerr.IoError("WriteManifest", manifestPath(dir), err)
	}
	if err := os.WriteFile(manifestPath(dir), buf.Bytes(), 0o644); err != nil {
		return gwerr.IoError("WriteManifest", manifestPath(dir), err)
	}
	return nil
}

// ReadManifest loads <dir>/manifest.toml.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(manifestPath(dir))
	if err != nil {
		return Manifest{}, gwerr.IoError("ReadManifest", manifestPath(dir), err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, gwerr.BadInput("ReadManifest", err)
	}
	return m, nil
}

// ReadBlockOf loads the dense vertex->block map.
func ReadBlockOf(dir string, v uint32) ([]byte, error) {
	data, err := os.ReadFile(blockOfPath(dir))
	if err != nil {
		return nil, gwerr.IoError("ReadBlockOf", blockOfPath(dir), err)
	}
	if uint32(len(data)) != v {
		return nil, gwerr.BadInput("ReadBlockOf", fmt.Errorf("block_of.u8 has %d bytes, want %d", len(data), v))
	}
	return data, nil
}

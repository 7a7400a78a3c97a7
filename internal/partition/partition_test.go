package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/engine"
)

func writeEdgeList(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "g.edges")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	for _, l := range lines {
		fmt.Fprintln(f, l)
	}
	return path
}

func TestRunPartitionsEveryVertexIntoExactlyOneBlock(t *testing.T) {
	path := writeEdgeList(t, []string{
		"0 1",
		"1 2",
		"2 3",
		"3 4",
		"4 0",
	})

	cfg := engine.DefaultConfig()
	cfg.File = path
	cfg.NVertices = 5
	cfg.NSteps = 1
	cfg.InvlBytes = 1024
	cfg.BlockBytes = 1024

	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	m, err := Run(eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.V != 5 {
		t.Errorf("manifest.V = %d, want 5", m.V)
	}

	seen := make([]bool, 5)
	for _, rng := range m.Blocks {
		for v := rng.Lo; v < rng.Hi; v++ {
			if seen[v] {
				t.Errorf("vertex %d assigned to more than one block range", v)
			}
			seen[v] = true
		}
	}
	for v, ok := range seen {
		if !ok {
			t.Errorf("vertex %d not covered by any block range", v)
		}
	}

	blockOf, err := blockfmt.ReadBlockOf(blockfmt.Dir(path), m.V)
	if err != nil {
		t.Fatalf("ReadBlockOf: %v", err)
	}
	if len(blockOf) != 5 {
		t.Fatalf("block_of.u8 has %d entries, want 5", len(blockOf))
	}
}

func TestBuildIntervalsRejectsRecordLargerThanBound(t *testing.T) {
	dir := t.TempDir()
	adj := [][]uint32{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, // 8 + 40 = 48 bytes
	}
	if _, err := BuildIntervals(dir, adj, 16); err == nil {
		t.Error("expected BlockTooSmall-class error for a record exceeding interval_bytes")
	}
}

package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/engine"
	"github.com/minio/gwalker/internal/partition"
)

// writeRingGraph writes a directed cycle 0->1->...->(n-1)->0, small
// enough for the partitioner to fit in a single block.
func writeRingGraph(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ring.edges")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create edge list: %v", err)
	}
	defer f.Close()
	for i := 0; i < n; i++ {
		fmt.Fprintf(f, "%d %d\n", i, (i+1)%n)
	}
	return path
}

// writePathGraph writes a directed path 0->1->...->(n-1) with no edge
// out of the last vertex.
func writePathGraph(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "path.edges")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create edge list: %v", err)
	}
	defer f.Close()
	for i := 0; i < n-1; i++ {
		fmt.Fprintf(f, "%d %d\n", i, i+1)
	}
	return path
}

// TestSchedulerRecordsOnlyTerminalVisits walks a single path graph
// 0->1->2->3 with alpha=0 and a step budget that exhausts exactly at
// vertex 3: the per-vertex visit counter must record only the walk's
// terminal vertex, not every vertex it passed through.
func TestSchedulerRecordsOnlyTerminalVisits(t *testing.T) {
	graphFile := writePathGraph(t, 4)

	cfg := engine.DefaultConfig()
	cfg.File = graphFile
	cfg.NVertices = 4
	cfg.NWalks = 1
	cfg.NSteps = 3
	cfg.RBound = 0
	cfg.ExecThreads = 1
	cfg.Alpha = 0
	cfg.Seed = 1

	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if _, err := partition.Run(eng); err != nil {
		t.Fatalf("partition.Run: %v", err)
	}

	sched, err := New(eng, blockfmt.Dir(graphFile))
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	if err := sched.SeedFrom([]uint32{0}); err != nil {
		t.Fatalf("SeedFrom: %v", err)
	}
	if err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []uint32{0, 0, 0, 1}
	got := sched.VisitCounts()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("VisitCounts() = %v, want %v", got, want)
			break
		}
	}
}

func TestSchedulerRunTerminatesAndAccumulatesVisits(t *testing.T) {
	graphFile := writeRingGraph(t, 20)

	cfg := engine.DefaultConfig()
	cfg.File = graphFile
	cfg.NVertices = 20
	cfg.NWalks = 20
	cfg.NSteps = 5
	cfg.RBound = 0
	cfg.ChunkBytes = 64
	cfg.NumChunks = 4
	cfg.IoDepth = 2
	cfg.ExecThreads = 2
	cfg.Alpha = 0
	cfg.Seed = 1

	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	if _, err := partition.Run(eng); err != nil {
		t.Fatalf("partition.Run: %v", err)
	}

	sched, err := New(eng, blockfmt.Dir(graphFile))
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	if err := sched.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := sched.walks.Live(); got != 0 {
		t.Errorf("Live() after Run = %d, want 0 (every walk should exhaust its step budget)", got)
	}

	total := uint64(0)
	for _, v := range sched.VisitCounts() {
		total += uint64(v)
	}
	if total == 0 {
		t.Error("VisitCounts summed to 0, want at least one recorded visit")
	}
}

package partition

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/attribute"

	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/engine"
	"github.com/minio/gwalker/internal/gwerr"
	"github.com/minio/gwalker/internal/tracing"
)

var tracer = tracing.GetTracer("partition")

// Run executes the full two-stage partitioner against eng.Config.File,
// writing block files, block_of.u8 and manifest.toml under
// blockfmt.Dir(eng.Config.File), and returns the resulting manifest.
func Run(eng *engine.Engine) (blockfmt.Manifest, error) {
	cfg := eng.Config
	log := eng.Log.WithField("component", "partition")

	ctx, span := tracing.StartSpan(context.Background(), tracer, "partition_run",
		attribute.String("file", cfg.File),
		attribute.Int64("nvertices", int64(cfg.NVertices)),
	)
	defer span.End()

	log.WithField("file", cfg.File).Info("building densified adjacency")
	adj, err := BuildAdjacency(cfg.File, cfg.NVertices)
	if err != nil {
		tracing.RecordError(ctx, err)
		return blockfmt.Manifest{}, err
	}

	dir := blockfmt.Dir(cfg.File)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		err = gwerr.IoError("partition.Run", dir, err)
		tracing.RecordError(ctx, err)
		return blockfmt.Manifest{}, err
	}

	log.WithField("interval_bytes", cfg.InvlBytes).Info("stage A: interval build")
	intervals, err := BuildIntervals(dir, adj, cfg.InvlBytes)
	if err != nil {
		tracing.RecordError(ctx, err)
		return blockfmt.Manifest{}, err
	}
	adj = nil // Stage B bounds memory to loaded intervals, not the whole graph.
	tracing.AddSpanEvent(ctx, "intervals_built", attribute.Int("intervals", len(intervals)))

	log.WithField("block_bytes", cfg.BlockBytes).Info("stage B: BFS reblock")
	result, err := BFSReblock(dir, intervals, cfg.NVertices, cfg.BlockBytes)
	if err != nil {
		tracing.RecordError(ctx, err)
		return blockfmt.Manifest{}, err
	}

	blockOfPath := blockfmt.BlockOfPath(dir)
	if err := os.WriteFile(blockOfPath, result.BlockOf, 0o644); err != nil {
		err = gwerr.IoError("partition.Run", blockOfPath, err)
		tracing.RecordError(ctx, err)
		return blockfmt.Manifest{}, err
	}

	for _, iv := range intervals {
		_ = os.Remove(iv.Path)
	}

	m := blockfmt.Manifest{
		V:          cfg.NVertices,
		B:          len(result.Blocks),
		ChunkBytes: cfg.ChunkBytes,
		BlockBytes: cfg.BlockBytes,
		Blocks:     result.Blocks,
	}
	if err := blockfmt.WriteManifest(dir, m); err != nil {
		tracing.RecordError(ctx, err)
		return blockfmt.Manifest{}, err
	}

	tracing.AddSpanAttributes(ctx, attribute.Int("blocks", m.B))
	log.WithField("blocks", m.B).Info("partition complete")
	return m, nil
}

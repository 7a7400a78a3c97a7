// Package scheduler implements the main loop: repeatedly activate the
// block the configured policy judges hottest, stream its bytes through
// the chunk cache, and step every walk resident in that block with a
// pool of exec_threads workers, until the global stop threshold is
// reached.
package scheduler

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/chunkcache"
	"github.com/minio/gwalker/internal/engine"
	"github.com/minio/gwalker/internal/tracing"
	"github.com/minio/gwalker/internal/walkkernel"
	"github.com/minio/gwalker/internal/walkset"
)

var tracer = tracing.GetTracer("scheduler")

// Scheduler owns the engine-lifetime state the main loop needs: the
// partitioned graph's manifest and vertex->block map, the walk
// manager, the chunk cache for the currently activated block, and the
// per-vertex visit counters the CLI's `walk` subcommand reports.
type Scheduler struct {
	eng      *engine.Engine
	dir      string
	manifest blockfmt.Manifest
	blockOf  []byte

	cache *chunkcache.Cache
	walks *walkset.Manager
	kern  walkkernel.Kernel

	visits []atomic.Uint32

	Activations atomic.Uint64
	Steps       atomic.Uint64
}

// New builds a Scheduler over a block directory that partition.Run has
// already produced.
func New(eng *engine.Engine, dir string) (*Scheduler, error) {
	manifest, err := blockfmt.ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	blockOf, err := blockfmt.ReadBlockOf(dir, manifest.V)
	if err != nil {
		return nil, err
	}
	cache, err := chunkcache.New(dir, eng.Config.ChunkBytes, eng.Config.NumChunks, eng.Config.IoDepth)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		eng:      eng,
		dir:      dir,
		manifest: manifest,
		blockOf:  blockOf,
		cache:    cache,
		walks:    walkset.New(manifest.B, eng.Config.NSteps),
		kern:     walkkernel.New(eng.Config.Alpha),
		visits:   make([]atomic.Uint32, manifest.V),
	}, nil
}

// Seed places nwalks fresh walks, each at a uniformly random source
// vertex, routed to the block that vertex belongs to.
func (s *Scheduler) Seed() error {
	seed := s.eng.Config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := walkkernel.NewRNG(seed)
	for i := uint64(0); i < s.eng.Config.NWalks; i++ {
		v := uint32(rng.IntN(int(s.manifest.V)))
		if err := s.walks.Seed(v, s.blockIDOf(v)); err != nil {
			return err
		}
	}
	return nil
}

// SeedFrom places nwalks walks in total, cycling round-robin through
// sources, instead of at uniformly random vertices. Used for
// personalized-PPR style runs seeded from a fixed vertex set.
func (s *Scheduler) SeedFrom(sources []uint32) error {
	n := s.eng.Config.NWalks
	if n == 0 {
		n = uint64(len(sources))
	}
	for i := uint64(0); i < n; i++ {
		v := sources[i%uint64(len(sources))]
		if v >= s.manifest.V {
			continue
		}
		if err := s.walks.Seed(v, s.blockIDOf(v)); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the main loop until the global stop threshold is reached
// or ctx is cancelled. A cancellation mid-run is not an error: the
// visit counters accumulated so far are still valid partial results.
func (s *Scheduler) Run(ctx context.Context) error {
	stopAt := int64(s.eng.StopThreshold())
	log := s.eng.Log.WithField("component", "scheduler")

	for s.walks.Live() > stopAt {
		select {
		case <-ctx.Done():
			log.Warn("run cancelled, returning partial visit counts")
			return nil
		default:
		}

		k, ok := s.walks.Hottest(s.eng.Config.Policy)
		if !ok {
			break
		}
		if err := s.activateBlock(ctx, k); err != nil {
			return err
		}
		s.Activations.Add(1)
	}
	return nil
}

// activateBlock streams block k's bytes through the chunk cache,
// drains every walk currently resident in it, and fans the per-walk
// step computation out across exec_threads workers. A block's bytes
// are bounded by block_bytes (a tuning knob, typically tens of MB), so
// reassembling them fully in memory here is consistent with the
// design: it is the full graph, not one block, that must never be
// memory-resident.
func (s *Scheduler) activateBlock(ctx context.Context, k int) error {
	vlo := s.manifest.Blocks[k].Lo
	idx, err := s.cache.Index(k, vlo)
	if err != nil {
		return err
	}

	ctx, span := tracing.StartSpan(ctx, tracer, "activate_block",
		tracing.BlockAttributes(k, s.walks.Live(), int64(idx.Size()))...,
	)
	defer span.End()

	if err := s.cache.Open(ctx, k, vlo, idx.Size()); err != nil {
		tracing.RecordError(ctx, err)
		return err
	}
	var buf bytes.Buffer
	for {
		ch, err := s.cache.PollReady(ctx)
		if err != nil {
			s.cache.Close()
			tracing.RecordError(ctx, err)
			return err
		}
		if ch == nil {
			break
		}
		buf.Write(ch.Bytes())
		s.cache.Release(ch)
	}
	if err := s.cache.Close(); err != nil {
		tracing.RecordError(ctx, err)
		return err
	}
	blockBytes := buf.Bytes()

	var entries []walkset.Entry
	for {
		e, ok := s.walks.Pop(k)
		if !ok {
			break
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil
	}

	jobs := make(chan walkset.Entry, len(entries))
	for _, e := range entries {
		jobs <- e
	}
	close(jobs)

	numWorkers := s.eng.Config.ExecThreads
	if numWorkers > len(entries) {
		numWorkers = len(entries)
	}
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		seed := s.eng.Config.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		go func(workerSeed uint64) {
			defer wg.Done()
			rng := walkkernel.NewRNG(workerSeed)
			for e := range jobs {
				s.stepWalk(blockBytes, idx, e, rng)
			}
		}(seed ^ uint64(w)*0x9e3779b97f4a7c15)
	}
	wg.Wait()
	return nil
}

func (s *Scheduler) stepWalk(blockBytes []byte, idx blockfmt.BeginIndex, e walkset.Entry, rng *walkkernel.Rand) {
	for {
		off, ok := idx.OffsetOf(e.Cur)
		if !ok {
			// The walk's current vertex has its record outside this
			// block: route the walk to the queue of the block that
			// owns that vertex.
			s.walks.Push(s.blockIDOf(e.Cur), e)
			return
		}
		rec, _, ok := blockfmt.DecodeRecordAt(blockBytes, int(off))
		if !ok {
			s.walks.Push(s.blockIDOf(e.Cur), e)
			return
		}

		s.Steps.Add(1)
		next := s.kern.Step(rng, s.manifest.V, rec.Neighbors)
		newEntry, done := s.walks.Advance(e, next)
		if done {
			// next is the vertex the walk's final hop landed on; only a
			// walk's terminal vertex counts toward the visit totals, not
			// every vertex it passed through.
			s.visits[next].Add(1)
			s.walks.Finish()
			return
		}
		// Keep stepping while the walk stays inside the resident
		// block; once it leaves, the check above re-queues it.
		e = newEntry
	}
}

func (s *Scheduler) blockIDOf(v uint32) int { return int(s.blockOf[v]) }

// VisitCounts returns the accumulated per-vertex visit counts.
func (s *Scheduler) VisitCounts() []uint32 {
	out := make([]uint32, len(s.visits))
	for i := range s.visits {
		out[i] = s.visits[i].Load()
	}
	return out
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minio/gwalker/internal/engine"
	"github.com/minio/gwalker/internal/scheduler"
)

var (
	walkFlags  = engine.DefaultConfig()
	policyName string
	sources    string
)

var walkCmd = &cobra.Command{
	Use:   "walk BLOCK_DIR",
	Short: "Run alpha-restart random walks over a partitioned graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		walkFlags.Policy = parsePolicy(policyName)

		eng, err := engine.New(walkFlags)
		if err != nil {
			return err
		}

		sched, err := scheduler.New(eng, args[0])
		if err != nil {
			return err
		}

		if sources != "" {
			if err := seedFromSources(sched, sources); err != nil {
				return err
			}
		} else if err := sched.Seed(); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		if err := sched.Run(ctx); err != nil {
			return err
		}

		return writeOutputs(sched)
	},
}

func init() {
	f := walkCmd.Flags()
	f.Uint32Var(&walkFlags.NVertices, "nvertices", 0, "number of vertices in the graph (required)")
	f.Uint64Var(&walkFlags.NWalks, "nwalks", 0, "initial walk count (required, also the rbound stop-fraction denominator)")
	f.Uint32Var(&walkFlags.NSteps, "nsteps", 80, "maximum hop count per walk")
	f.Float64Var(&walkFlags.RBound, "rbound", 0, "global stop fraction: stop once live walks <= rbound*nwalks")
	f.Float64Var(&walkFlags.RBoundIn, "rboundin", 0, "per-block stop fraction (validated, not applied: each block activation drains fully)")
	f.IntVar(&walkFlags.ChunkBytes, "chunk_sz", walkFlags.ChunkBytes, "chunk cache chunk size in bytes")
	f.IntVar(&walkFlags.NumChunks, "num_chunks", walkFlags.NumChunks, "chunk ring capacity")
	f.IntVar(&walkFlags.IoDepth, "io_depth", walkFlags.IoDepth, "outstanding asynchronous read bound")
	f.IntVar(&walkFlags.ExecThreads, "execthreads", walkFlags.ExecThreads, "compute threads per block activation")
	f.Float64Var(&walkFlags.Alpha, "alpha", walkFlags.Alpha, "restart probability")
	f.Uint64Var(&walkFlags.Seed, "seed", 0, "RNG seed (0 = seed from wall clock)")
	f.StringVar(&policyName, "policy", "max-walks", "block selection policy: max-walks, min-step, or max-weight")
	f.StringVar(&sources, "sources", "", "comma-separated vertex ids to seed personalized walks from, instead of uniformly random vertices")
	walkCmd.MarkFlagRequired("nvertices")
	walkCmd.MarkFlagRequired("nwalks")
}

func parsePolicy(name string) engine.BlockSelectionPolicy {
	switch strings.ToLower(name) {
	case "min-step":
		return engine.PolicyMinStep
	case "max-weight":
		return engine.PolicyMaxWeight
	default:
		return engine.PolicyMaxWalks
	}
}

// seedFromSources implements personalized PPR-style seeding: every
// walk starts at one of the listed source vertices (round-robin) up
// to nwalks total, instead of at uniformly random vertices.
func seedFromSources(sched *scheduler.Scheduler, sources string) error {
	var ids []uint32
	for _, tok := range strings.Split(sources, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid --sources entry %q: %w", tok, err)
		}
		ids = append(ids, uint32(v))
	}
	if len(ids) == 0 {
		return fmt.Errorf("--sources given but no vertex ids parsed")
	}
	return sched.SeedFrom(ids)
}

// writeOutputs writes visits.u32 (raw per-vertex visit counts) and
// top.tsv (the highest-visited vertices, tab-separated).
func writeOutputs(sched *scheduler.Scheduler) error {
	counts := sched.VisitCounts()

	f, err := os.Create("visits.u32")
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	var buf [4]byte
	for _, c := range counts {
		buf[0] = byte(c)
		buf[1] = byte(c >> 8)
		buf[2] = byte(c >> 16)
		buf[3] = byte(c >> 24)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	return writeTopTSV("top.tsv", counts, 100)
}

func writeTopTSV(path string, counts []uint32, topN int) error {
	type pair struct {
		vertex uint32
		count  uint32
	}
	pairs := make([]pair, len(counts))
	for v, c := range counts {
		pairs[v] = pair{uint32(v), c}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].count > pairs[j].count })
	if topN > len(pairs) {
		topN = len(pairs)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, p := range pairs[:topN] {
		fmt.Fprintf(w, "%d\t%d\n", p.vertex, p.count)
	}
	return w.Flush()
}

// Package engine holds the single process-lifetime Engine value: tuning
// parameters and the structured logger, constructed once at startup and passed by reference to every
// subsystem, in place of package-level globals.
package engine

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/minio/gwalker/internal/gwerr"
)

// BlockSelectionPolicy names the scheduler's block-activation strategy.
// Max-walks is the default; min-step and max-weight trade throughput
// for how quickly individual walks reach their step budget.
type BlockSelectionPolicy int

const (
	// PolicyMaxWalks activates the block with the most live walks. Default.
	PolicyMaxWalks BlockSelectionPolicy = iota
	// PolicyMinStep activates the block whose resident walks have made
	// the fewest average hops, favoring walks closer to their source.
	PolicyMinStep
	// PolicyMaxWeight activates by walks/min-step, a composite of the two.
	PolicyMaxWeight
)

func (p BlockSelectionPolicy) String() string {
	switch p {
	case PolicyMaxWalks:
		return "max-walks"
	case PolicyMinStep:
		return "min-step"
	case PolicyMaxWeight:
		return "max-weight"
	default:
		return "unknown"
	}
}

// Config carries every tuning knob the CLI exposes.
type Config struct {
	// File is the path to the edge list (partition) or block directory (walk).
	File string
	// NVertices is V, the dense vertex-id universe size.
	NVertices uint32
	// NWalks is the initial walk count.
	NWalks uint64
	// NSteps is the maximum hop count per walk (max_steps).
	NSteps uint32
	// RBound is the global stop fraction (stop_threshold / nwalks).
	RBound float64
	// RBoundIn is the per-block stop fraction.
	RBoundIn float64
	// ChunkBytes is the chunk cache's fixed chunk size.
	ChunkBytes int
	// NumChunks is the chunk ring capacity R.
	NumChunks int
	// IoDepth bounds outstanding asynchronous reads.
	IoDepth int
	// ExecThreads is the compute-thread count per block activation.
	ExecThreads int
	// Alpha is the restart probability.
	Alpha float64
	// InvlBytes/BlockBytes are partitioner tuning knobs controlling the
	// interval build and block-reblock byte bounds.
	InvlBytes  int64
	BlockBytes int64
	// Policy selects the scheduler's block-activation strategy.
	Policy BlockSelectionPolicy
	// Seed seeds the production RNG; zero means "seed from wall clock".
	Seed uint64
}

// DefaultConfig returns the CLI's default tuning parameters.
func DefaultConfig() Config {
	return Config{
		RBound:      0,
		RBoundIn:    0,
		ChunkBytes:  2 * 1024 * 1024,
		NumChunks:   8,
		IoDepth:     4,
		ExecThreads: runtime.NumCPU(),
		Alpha:       0.15,
		InvlBytes:   40 * 1024 * 1024,
		BlockBytes:  40 * 1024 * 1024,
		Policy:      PolicyMaxWalks,
	}
}

// Validate rejects configurations that would violate an encoding or
// range invariant before any I/O is attempted.
func (c Config) Validate() error {
	if c.NVertices == 0 {
		return gwerr.BadInput("engine.Validate", fmt.Errorf("nvertices must be > 0"))
	}
	if c.NSteps == 0 {
		return gwerr.BadInput("engine.Validate", fmt.Errorf("nsteps must be > 0"))
	}
	if c.NSteps >= 1<<9 {
		return gwerr.WalkOverflow("engine.Validate", fmt.Errorf("nsteps=%d exceeds the 9-bit hop-count encoding (max %d)", c.NSteps, 1<<9-1))
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return gwerr.BadInput("engine.Validate", fmt.Errorf("alpha must be in [0,1], got %f", c.Alpha))
	}
	if c.RBound < 0 || c.RBound > 1 || c.RBoundIn < 0 || c.RBoundIn > 1 {
		return gwerr.BadInput("engine.Validate", fmt.Errorf("rbound/rboundin must be in [0,1]"))
	}
	if c.ChunkBytes <= 0 || c.NumChunks <= 0 || c.IoDepth <= 0 || c.ExecThreads <= 0 {
		return gwerr.BadInput("engine.Validate", fmt.Errorf("chunk_sz, num_chunks, io_depth and execthreads must be > 0"))
	}
	return nil
}

// Engine is the single value threaded through every subsystem. It owns
// nothing that the subsystems themselves can't reconstruct cheaply; it
// exists so there is exactly one place tuning parameters and the
// logger live, instead of package-level globals.
type Engine struct {
	Config Config
	Log    *logrus.Logger
}

// New constructs the process-lifetime Engine, logging the resolved
// configuration as structured fields.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.WithFields(logrus.Fields{
		"nvertices":   cfg.NVertices,
		"nwalks":      cfg.NWalks,
		"nsteps":      cfg.NSteps,
		"chunk_bytes": cfg.ChunkBytes,
		"num_chunks":  cfg.NumChunks,
		"policy":      cfg.Policy,
	}).Info("engine configured")

	return &Engine{Config: cfg, Log: log}, nil
}

// StopThreshold returns the absolute global walk-count floor derived
// from RBound and the initial walk count.
func (e *Engine) StopThreshold() uint64 {
	return uint64(float64(e.Config.NWalks) * e.Config.RBound)
}

// Since returns the time elapsed since start.
func Since(start time.Time) time.Duration { return time.Since(start) }

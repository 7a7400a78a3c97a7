// Package chunkcache implements an asynchronous ring of fixed-size
// chunks that streams one block's bytes off disk so compute threads
// never need the whole block resident.
package chunkcache

import "sync/atomic"

// State is a chunk's lifecycle stage. Transitions follow
// FREE -> LOADING -> READY -> EVICTED -> FREE.
type State int32

const (
	StateFree State = iota
	StateLoading
	StateReady
	StateEvicted
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StateEvicted:
		return "EVICTED"
	default:
		return "UNKNOWN"
	}
}

// Chunk is one fixed-size, page-aligned byte buffer plus its metadata:
// owning block id, byte offset within the block file, load size (bytes
// actually populated), the first vertex whose record starts at or
// before the chunk, and the lifecycle state.
type Chunk struct {
	Index int
	Buf   []byte // capacity chunk_bytes, reused across block activations

	BlockID   int
	BlkBegOff uint64
	LoadSz    int
	BegVert   uint32

	state atomic.Int32
}

// State atomically reads the chunk's lifecycle state.
func (c *Chunk) State() State { return State(c.state.Load()) }

func (c *Chunk) setState(s State) { c.state.Store(int32(s)) }

// Bytes returns the populated prefix of the chunk's buffer.
func (c *Chunk) Bytes() []byte { return c.Buf[:c.LoadSz] }

// Package walkset implements the walk manager: per-block queues of
// live random walks, the packed walk encoding, and the block-selection
// policies the scheduler uses to decide which block to activate next.
// Per-vertex locking is sharded across a fixed set of stripes, each
// keyed by a hashed vertex id, to avoid one global lock across
// concurrent step workers.
package walkset

import "github.com/minio/gwalker/internal/gwerr"

// hopBits is the width of the hop-count field in a packed Walk. 9 bits
// bounds max_steps at 511; the remaining 23 bits of source id cover
// vertex universes up to ~8.4M, the common case for graphs that still
// fit a manifest listing one byte per vertex in block_of.u8 (<=256
// blocks) but not in memory as an edge list.
const (
	hopBits    = 9
	hopMask    = 1<<hopBits - 1
	sourceBits = 32 - hopBits
	maxHop     = hopMask
)

// Walk is a live random walk's packed state: the vertex it started
// from (23 bits) and the number of hops it has taken so far (9 bits).
// The vertex it currently sits at is tracked separately by the block
// queue that holds it, since that is what determines which block's
// activation can advance the walk.
type Walk uint32

// NewWalk packs a source vertex id and hop count into a Walk. It
// returns WalkOverflow if source does not fit in 23 bits or hop
// exceeds the 9-bit field.
func NewWalk(source uint32, hop uint32) (Walk, error) {
	if source >= 1<<sourceBits {
		return 0, gwerr.WalkOverflow("walkset.NewWalk", nil)
	}
	if hop > maxHop {
		return 0, gwerr.WalkOverflow("walkset.NewWalk", nil)
	}
	return Walk(source<<hopBits | hop), nil
}

// Source returns the walk's originating vertex id.
func (w Walk) Source() uint32 { return uint32(w) >> hopBits }

// Hop returns the number of hops the walk has taken.
func (w Walk) Hop() uint32 { return uint32(w) & hopMask }

// Advanced returns the walk with its hop count incremented by one,
// and false if doing so would overflow the 9-bit field.
func (w Walk) Advanced() (Walk, bool) {
	h := w.Hop()
	if h >= maxHop {
		return w, false
	}
	return Walk(uint32(w) + 1), true
}

// Entry is one walk resident in a block queue: its packed state plus
// the vertex it is currently sitting at.
type Entry struct {
	W   Walk
	Cur uint32
}

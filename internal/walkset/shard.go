package walkset

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// stripeCount is the number of independent mutex stripes vertex-level
// operations hash into. A walk manager's contention is bounded by
// exec_threads, so a small fixed stripe count is enough to keep
// concurrent step workers from serializing on one lock.
const stripeCount = 64

// stripes is a fixed set of mutexes indexed by a hash of a vertex id,
// avoiding one global lock across every vertex touched by concurrent
// walk steps.
type stripes struct {
	mu [stripeCount]sync.Mutex
}

func (s *stripes) lockFor(v uint32) *sync.Mutex {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h := xxhash.Sum64(buf[:])
	return &s.mu[h%stripeCount]
}

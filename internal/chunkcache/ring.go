package chunkcache

// ring is the free_q / load_q handoff between the cache's single
// producer goroutine and the compute threads draining ready chunks.
// Design notes call for replacing the pointer-based ring queues of the
// original engine with an explicit fixed-capacity structure and
// head/tail indices; a buffered channel of R chunk indices is exactly
// that structure — capacity fixed at construction, no resize, no
// pointer aliasing — while giving blocking push/pop and cancellation
// for free instead of a hand-rolled CAS loop.
type ring struct {
	ch chan int
}

func newRing(capacity int) *ring {
	return &ring{ch: make(chan int, capacity)}
}

// push enqueues a chunk index, blocking if the ring is full.
func (r *ring) push(idx int) { r.ch <- idx }

// tryPush enqueues without blocking, reporting whether it succeeded.
func (r *ring) tryPush(idx int) bool {
	select {
	case r.ch <- idx:
		return true
	default:
		return false
	}
}

// pop dequeues a chunk index, blocking if the ring is empty. ok is
// false if the ring was closed and drained.
func (r *ring) pop() (idx int, ok bool) {
	idx, ok = <-r.ch
	return idx, ok
}

func (r *ring) close() { close(r.ch) }

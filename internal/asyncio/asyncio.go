// Package asyncio wraps the Linux AIO kernel interface
// (io_setup/io_submit/io_getevents/io_destroy) used by the chunk cache
// to submit reads without blocking the I/O thread on each one, reaching
// the syscalls directly through golang.org/x/sys/unix rather than
// cgo-linking libaio.
//
// Submit never drops a request once a per-file queue fills — it blocks
// the caller until a descriptor slot is free, rather than silently
// dropping it.
package asyncio

import (
	"context"
	"fmt"
	"sync"
)

// ReqHandle is an index into the Submitter's fixed descriptor pool,
// handed out instead of a pointer so per-I/O metadata lives in a flat
// preallocated array indexed by integer.
type ReqHandle int

// Result is the outcome of one completed read.
type Result struct {
	N   int
	Err error
}

type request struct {
	fd     int
	buf    []byte
	offset int64
	result chan Result
	inUse  bool
}

// Submitter bounds outstanding asynchronous reads to Depth and hands
// completions back on a per-request channel. The platform-specific
// implementation lives in aio_linux.go; a portable fallback backs
// onto ordinary blocking pread calls on goroutines for non-Linux
// development builds (see aio_fallback.go).
type Submitter struct {
	depth int

	mu    sync.Mutex
	slots []request
	free  []ReqHandle

	impl platformAIO
}

// NewSubmitter creates a Submitter bounding outstanding reads to depth.
func NewSubmitter(depth int) (*Submitter, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("asyncio: depth must be > 0")
	}
	s := &Submitter{
		depth: depth,
		slots: make([]request, depth),
	}
	for i := 0; i < depth; i++ {
		s.free = append(s.free, ReqHandle(i))
	}
	impl, err := newPlatformAIO(depth)
	if err != nil {
		return nil, err
	}
	s.impl = impl
	return s, nil
}

// Submit issues an asynchronous pread of len(buf) bytes at offset from
// fd, blocking the caller only if every descriptor slot is already in
// flight (never silently dropping the request). The returned channel
// receives exactly one Result.
func (s *Submitter) Submit(ctx context.Context, fd int, buf []byte, offset int64) (<-chan Result, error) {
	h, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.slots[h] = request{fd: fd, buf: buf, offset: offset, result: make(chan Result, 1), inUse: true}
	req := s.slots[h]
	s.mu.Unlock()

	if err := s.impl.submit(int(h), fd, buf, offset, func(n int, err error) {
		req.result <- Result{N: n, Err: err}
		s.release(h)
	}); err != nil {
		s.release(h)
		return nil, err
	}
	return req.result, nil
}

func (s *Submitter) acquire(ctx context.Context) (ReqHandle, error) {
	for {
		s.mu.Lock()
		if len(s.free) > 0 {
			h := s.free[len(s.free)-1]
			s.free = s.free[:len(s.free)-1]
			s.mu.Unlock()
			return h, nil
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
			s.impl.wait()
		}
	}
}

func (s *Submitter) release(h ReqHandle) {
	s.mu.Lock()
	s.slots[h].inUse = false
	s.free = append(s.free, h)
	s.mu.Unlock()
}

// Close releases all kernel-side AIO context.
func (s *Submitter) Close() error { return s.impl.close() }

// platformAIO is the narrow seam between the portable Submitter and
// the OS-specific completion mechanism.
type platformAIO interface {
	submit(slot int, fd int, buf []byte, offset int64, done func(n int, err error)) error
	wait()
	close() error
}

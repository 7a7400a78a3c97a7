//go:build linux

package asyncio

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// iocb mirrors struct iocb from linux/aio_abi.h (64 bytes on amd64).
// Only the PREAD fields are populated; aio_reserved2/aio_flags/
// aio_resfd are left zero (no eventfd notification; completion is
// harvested by polling io_getevents from the reaper goroutine).
type iocb struct {
	aioData       uint64
	aioKeyRWFlags uint32 // aio_key (low 32) packed with aio_rw_flags in newer kernels; zero is safe for PREAD
	_             uint32
	opcode        uint16
	reqprio       int16
	fildes        uint32
	buf           uint64
	nbytes        uint64
	offset        int64
	reserved2     uint64
	flags         uint32
	resfd         uint32
}

const iocbCmdPread = 0

// ioEvent mirrors struct io_event (32 bytes).
type ioEvent struct {
	data uint64
	obj  uint64
	res  int64
	res2 int64
}

type aioContextT uintptr

type linuxAIO struct {
	ctx   aioContextT
	depth int

	mu        sync.Mutex
	pending   map[uint64]func(int, error)
	bufs      map[uint64][]byte // keeps the Go buffer alive until completion
	stopCh    chan struct{}
	stoppedWg sync.WaitGroup
}

func newPlatformAIO(depth int) (platformAIO, error) {
	var ctx aioContextT
	_, _, errno := unix.Syscall(unix.SYS_IO_SETUP, uintptr(depth), uintptr(unsafe.Pointer(&ctx)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("asyncio: io_setup: %w", errno)
	}
	a := &linuxAIO{
		ctx:     ctx,
		depth:   depth,
		pending: make(map[uint64]func(int, error)),
		bufs:    make(map[uint64][]byte),
		stopCh:  make(chan struct{}),
	}
	a.stoppedWg.Add(1)
	go a.reap()
	return a, nil
}

func (a *linuxAIO) submit(slot int, fd int, buf []byte, offset int64, done func(n int, err error)) error {
	key := uint64(slot) + 1 // 0 is reserved to mean "no completion yet"

	a.mu.Lock()
	a.pending[key] = done
	a.bufs[key] = buf
	a.mu.Unlock()

	cb := &iocb{
		aioData: key,
		opcode:  iocbCmdPread,
		fildes:  uint32(fd),
		buf:     uint64(uintptr(unsafe.Pointer(&buf[0]))),
		nbytes:  uint64(len(buf)),
		offset:  offset,
	}
	cbs := [1]*iocb{cb}

	_, _, errno := unix.Syscall(unix.SYS_IO_SUBMIT, uintptr(a.ctx), 1, uintptr(unsafe.Pointer(&cbs[0])))
	if errno != 0 {
		a.mu.Lock()
		delete(a.pending, key)
		delete(a.bufs, key)
		a.mu.Unlock()
		if errno == unix.EAGAIN {
			// Transient: the kernel's submission queue is momentarily
			// full. Retry after yielding instead of dropping the request.
			time.Sleep(time.Millisecond)
			return a.submit(slot, fd, buf, offset, done)
		}
		return fmt.Errorf("asyncio: io_submit: %w", errno)
	}
	return nil
}

func (a *linuxAIO) reap() {
	defer a.stoppedWg.Done()
	events := make([]ioEvent, a.depth)
	for {
		select {
		case <-a.stopCh:
			return
		default:
		}
		var timeout unix.Timespec
		timeout.Sec = 0
		timeout.Nsec = int64(50 * time.Millisecond)
		n, _, errno := unix.Syscall6(unix.SYS_IO_GETEVENTS, uintptr(a.ctx), 1,
			uintptr(len(events)), uintptr(unsafe.Pointer(&events[0])), uintptr(unsafe.Pointer(&timeout)), 0)
		if errno != 0 {
			continue
		}
		for i := 0; i < int(n); i++ {
			ev := events[i]
			a.mu.Lock()
			done := a.pending[ev.data]
			delete(a.pending, ev.data)
			delete(a.bufs, ev.data)
			a.mu.Unlock()
			if done == nil {
				continue
			}
			if ev.res < 0 {
				done(0, fmt.Errorf("asyncio: read failed: errno %d", -ev.res))
			} else {
				done(int(ev.res), nil)
			}
		}
	}
}

func (a *linuxAIO) wait() { time.Sleep(time.Millisecond) }

func (a *linuxAIO) close() error {
	close(a.stopCh)
	a.stoppedWg.Wait()
	_, _, errno := unix.Syscall(unix.SYS_IO_DESTROY, uintptr(a.ctx), 0, 0)
	if errno != 0 {
		return fmt.Errorf("asyncio: io_destroy: %w", errno)
	}
	return nil
}

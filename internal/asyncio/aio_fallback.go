//go:build !linux

package asyncio

import (
	"time"

	"golang.org/x/sys/unix"
)

// fallbackAIO backs the Submitter with ordinary blocking preads run on
// goroutines, for development off Linux. The chunk cache's ordering
// and depth-bound contracts are unaffected; only the completion
// mechanism differs from the production io_setup/io_submit path in
// aio_linux.go.
type fallbackAIO struct{}

func newPlatformAIO(depth int) (platformAIO, error) {
	return &fallbackAIO{}, nil
}

func (f *fallbackAIO) submit(slot int, fd int, buf []byte, offset int64, done func(n int, err error)) error {
	go func() {
		n, err := unix.Pread(fd, buf, offset)
		done(n, err)
	}()
	return nil
}

func (f *fallbackAIO) wait() { time.Sleep(time.Millisecond) }

func (f *fallbackAIO) close() error { return nil }

//go:build !linux

package chunkcache

import "golang.org/x/sys/unix"

// openBlockFile opens a block's .adj file for ordinary buffered reads.
// O_DIRECT is Linux-specific; non-Linux development builds pay the
// page-cache cost instead, as noted for the AIO fallback in
// internal/asyncio/aio_fallback.go.
func openBlockFile(path string) (int, error) {
	return unix.Open(path, unix.O_RDONLY, 0)
}

//go:build linux

package chunkcache

import "golang.org/x/sys/unix"

// openBlockFile opens a block's .adj file for direct, unbuffered reads
// so the page cache does not duplicate the chunk ring's own buffering.
// O_DIRECT requires page-aligned buffers and offsets, which is exactly
// what alignedBuffer and the chunk byte boundaries provide.
func openBlockFile(path string) (int, error) {
	return unix.Open(path, unix.O_RDONLY|unix.O_DIRECT, 0)
}

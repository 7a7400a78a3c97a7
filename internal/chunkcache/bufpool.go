package chunkcache

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// alignedBuffer allocates a byte slice of exactly size bytes whose
// first byte sits on a page boundary, required for O_DIRECT reads on
// most Linux filesystems. Every chunk in the ring is the same fixed
// size, so one alignment helper is all the pool needs.
func alignedBuffer(size int) []byte {
	pageSize := unix.Getpagesize()
	raw := make([]byte, size+pageSize)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := 0
	if rem := addr % uintptr(pageSize); rem != 0 {
		offset = pageSize - int(rem)
	}
	return raw[offset : offset+size : offset+size]
}

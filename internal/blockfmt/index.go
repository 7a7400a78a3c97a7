package blockfmt

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/minio/gwalker/internal/gwerr"
)

// BeginIndex is the block-wise begin-position index: offset (in bytes
// from the start of the block file) of each vertex's adjacency record,
// plus a trailing sentinel giving the block's total size.
type BeginIndex struct {
	VLo     uint32
	Offsets []uint64 // len == v_hi - v_lo + 1
}

// OffsetOf returns the byte offset of vertex v's record, or false if v
// is outside this block's range.
func (b BeginIndex) OffsetOf(v uint32) (uint64, bool) {
	if v < b.VLo || int(v-b.VLo) >= len(b.Offsets)-1 {
		return 0, false
	}
	return b.Offsets[v-b.VLo], true
}

// RecordLen returns the byte length of vertex v's on-disk record.
func (b BeginIndex) RecordLen(v uint32) (uint64, bool) {
	if v < b.VLo || int(v-b.VLo) >= len(b.Offsets)-1 {
		return 0, false
	}
	i := v - b.VLo
	return b.Offsets[i+1] - b.Offsets[i], true
}

// VertexAtOrBefore returns the highest vertex id whose record begins at
// or before byte offset off — the "first vertex whose record starts at
// or before byte blk_beg_off" the chunk cache needs for a chunk's
// beg_vert metadata.
func (b BeginIndex) VertexAtOrBefore(off uint64) uint32 {
	lo, hi := 0, len(b.Offsets)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if b.Offsets[mid] <= off {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return b.VLo + uint32(best)
}

// Size is the block's total byte size, the sidecar's final entry.
func (b BeginIndex) Size() uint64 {
	if len(b.Offsets) == 0 {
		return 0
	}
	return b.Offsets[len(b.Offsets)-1]
}

// loadBeginIndex reads block k's .idx sidecar from disk.
func loadBeginIndex(dir string, k int, vlo uint32) (BeginIndex, error) {
	path := blockIdxPath(dir, k)
	data, err := os.ReadFile(path)
	if err != nil {
		return BeginIndex{}, gwerr.IoError("blockfmt.loadBeginIndex", path, err)
	}
	if len(data)%8 != 0 {
		return BeginIndex{}, gwerr.BadInput("blockfmt.loadBeginIndex", errMalformedIdx(path))
	}
	offsets := make([]uint64, len(data)/8)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(data[8*i : 8*i+8])
	}
	return BeginIndex{VLo: vlo, Offsets: offsets}, nil
}

func errMalformedIdx(path string) error {
	return &malformedIdxError{path: path}
}

type malformedIdxError struct{ path string }

func (e *malformedIdxError) Error() string {
	return e.path + ": sidecar length is not a multiple of 8 bytes"
}

// IndexCache keeps a bounded set of recently used BeginIndex values
// resident, avoiding a disk re-read each time the scheduler reactivates
// a block it has visited before, evicting least-recently-used entries
// once it reaches capacity.
type IndexCache struct {
	dir     string
	maxSize int

	mu      sync.Mutex
	entries map[int]*indexEntry
	order   []int // LRU order, oldest first
}

type indexEntry struct {
	idx BeginIndex
}

// NewIndexCache builds a cache bounded to maxSize resident blocks'
// indexes (default: keep a handful around, since the scheduler only
// ever has one block hot at a time but may oscillate between a couple
// of blocks near the end of a run).
func NewIndexCache(dir string, maxSize int) *IndexCache {
	if maxSize <= 0 {
		maxSize = 4
	}
	return &IndexCache{dir: dir, maxSize: maxSize, entries: make(map[int]*indexEntry)}
}

// Get returns block k's begin-position index, loading and caching it
// from the .idx sidecar on a miss.
func (c *IndexCache) Get(k int, vlo uint32) (BeginIndex, error) {
	c.mu.Lock()
	if e, ok := c.entries[k]; ok {
		c.touch(k)
		c.mu.Unlock()
		return e.idx, nil
	}
	c.mu.Unlock()

	idx, err := loadBeginIndex(c.dir, k, vlo)
	if err != nil {
		return BeginIndex{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; !ok {
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
		c.entries[k] = &indexEntry{idx: idx}
		c.order = append(c.order, k)
	}
	return idx, nil
}

func (c *IndexCache) touch(k int) {
	for i, v := range c.order {
		if v == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, k)
}

func (c *IndexCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

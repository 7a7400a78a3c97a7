package partition

import (
	"bufio"
	"container/heap"
	"os"
	"sort"

	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/gwerr"
)

// vertexHeap is a min-priority queue of vertex ids, used so the BFS
// frontier always expands the numerically smallest unvisited vertex
// first. container/heap is the stdlib adapter for this; see DESIGN.md
// for why no third-party library improves on it here.
type vertexHeap []uint32

func (h vertexHeap) Len() int            { return len(h) }
func (h vertexHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h vertexHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *vertexHeap) Push(x interface{}) { *h = append(*h, x.(uint32)) }
func (h *vertexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// maxBlocks is the structural ceiling imposed by block_of.u8 storing
// one byte per vertex: at most 256 distinct block ids.
const maxBlocks = 256

// intervalLoader lazily reads interval files into memory, caching the
// handful most recently loaded (evicted in load order) so BFS frontier
// jumps across interval boundaries don't force a re-read of an interval
// it just left.
type intervalLoader struct {
	intervals []Interval
	cache     map[int][]blockfmt.Record
	order     []int
	capacity  int
}

func newIntervalLoader(intervals []Interval, capacity int) *intervalLoader {
	if capacity <= 0 {
		capacity = 2
	}
	return &intervalLoader{intervals: intervals, cache: make(map[int][]blockfmt.Record), capacity: capacity}
}

func (l *intervalLoader) find(v uint32) int {
	return sort.Search(len(l.intervals), func(i int) bool { return v < l.intervals[i].Hi })
}

func (l *intervalLoader) recordOf(v uint32) (blockfmt.Record, error) {
	i := l.find(v)
	if i >= len(l.intervals) || v < l.intervals[i].Lo {
		return blockfmt.Record{}, gwerr.BadInput("partition.intervalLoader", errVertexNotInAnyInterval(v))
	}
	recs, ok := l.cache[i]
	if !ok {
		var err error
		recs, err = l.load(i)
		if err != nil {
			return blockfmt.Record{}, err
		}
		l.put(i, recs)
	}
	return recs[v-l.intervals[i].Lo], nil
}

func (l *intervalLoader) load(i int) ([]blockfmt.Record, error) {
	iv := l.intervals[i]
	f, err := os.Open(iv.Path)
	if err != nil {
		return nil, gwerr.IoError("partition.intervalLoader", iv.Path, err)
	}
	defer f.Close()
	br := bufio.NewReaderSize(f, 1<<20)
	n := int(iv.Hi - iv.Lo)
	recs := make([]blockfmt.Record, 0, n)
	for len(recs) < n {
		r, err := blockfmt.DecodeRecord(br)
		if err != nil {
			return nil, gwerr.IoError("partition.intervalLoader", iv.Path, err)
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func (l *intervalLoader) put(i int, recs []blockfmt.Record) {
	if len(l.cache) >= l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.cache, oldest)
	}
	l.cache[i] = recs
	l.order = append(l.order, i)
}

type vertexNotInAnyIntervalError struct{ v uint32 }

func errVertexNotInAnyInterval(v uint32) error { return &vertexNotInAnyIntervalError{v: v} }
func (e *vertexNotInAnyIntervalError) Error() string {
	return "vertex not covered by any interval"
}

// Result is everything Stage B produces: the vertex->block map and the
// block ranges needed to populate manifest.toml.
type Result struct {
	BlockOf []byte
	Blocks  []blockfmt.BlockRange
}

// BFSReblock is Stage B: traverse the graph by BFS starting from the
// lowest unvisited vertex, always expanding the smallest frontier
// vertex, streaming each visited vertex's record into the current
// output block and rolling to a new block once blockBytes would be
// exceeded. A fresh BFS starts from the next unvisited vertex whenever
// the frontier empties, guaranteeing termination since every vertex is
// visited exactly once.
func BFSReblock(dir string, intervals []Interval, v uint32, blockBytes int64) (Result, error) {
	loader := newIntervalLoader(intervals, 2)

	visited := make([]bool, v)
	inFrontier := make([]bool, v)
	blockOf := make([]byte, v)

	var (
		h       vertexHeap
		writer  *blockfmt.Writer
		k       int
		blockLo uint32
		ranges  []blockfmt.BlockRange
	)

	closeBlock := func(hi uint32) error {
		if writer == nil {
			return nil
		}
		if err := writer.Close(); err != nil {
			return err
		}
		ranges = append(ranges, blockfmt.BlockRange{Lo: blockLo, Hi: hi})
		k++
		writer = nil
		return nil
	}

	openBlock := func(lo uint32) error {
		if k >= maxBlocks {
			return gwerr.Oom("partition.BFSReblock", errTooManyBlocks())
		}
		var err error
		writer, err = blockfmt.NewWriter(dir, k, lo)
		blockLo = lo
		return err
	}

	visit := func(vtx uint32) error {
		visited[vtx] = true
		rec, err := loader.recordOf(vtx)
		if err != nil {
			return err
		}
		if int64(rec.ByteSize()) > blockBytes {
			return gwerr.BlockTooSmall("partition.BFSReblock", vtx, rec.ByteSize(), int(blockBytes))
		}
		if writer == nil {
			if err := openBlock(vtx); err != nil {
				return err
			}
		} else if writer.Size()+int64(rec.ByteSize()) > blockBytes {
			if err := closeBlock(vtx); err != nil {
				return err
			}
			if err := openBlock(vtx); err != nil {
				return err
			}
		}
		if err := writer.Append(rec); err != nil {
			return err
		}
		blockOf[vtx] = byte(k)
		for _, n := range rec.Neighbors {
			if !visited[n] && !inFrontier[n] {
				inFrontier[n] = true
				heap.Push(&h, n)
			}
		}
		return nil
	}

	for start := uint32(0); start < v; start++ {
		if visited[start] {
			continue
		}
		inFrontier[start] = true
		heap.Push(&h, start)
		for h.Len() > 0 {
			next := heap.Pop(&h).(uint32)
			inFrontier[next] = false
			if visited[next] {
				continue
			}
			if err := visit(next); err != nil {
				return Result{}, err
			}
		}
	}
	if err := closeBlock(v); err != nil {
		return Result{}, err
	}

	return Result{BlockOf: blockOf, Blocks: ranges}, nil
}

type tooManyBlocksError struct{}

func errTooManyBlocks() error { return &tooManyBlocksError{} }
func (e *tooManyBlocksError) Error() string {
	return "partition produced more than 256 blocks; block_of.u8 cannot address them"
}

package partition

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/gwerr"
)

// Interval is one flushed Stage-A output: a contiguous vertex range
// whose records are fully resident on disk at Path.
type Interval struct {
	Lo, Hi uint32 // [Lo, Hi)
	Path   string
}

func intervalPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("interval_%d.adj", i))
}

// BuildIntervals is Stage A: walk the densified adjacency in ascending
// vertex order, accumulating records into the current interval buffer,
// and flushing a new interval file whenever the running byte total
// would exceed intervalBytes. Zero-degree filler records for vertices
// with no outgoing edges keep every vertex id represented exactly once
// across intervals, so BFS reblocking in Stage B never needs to ask
// "is this vertex missing".
func BuildIntervals(dir string, adj [][]uint32, intervalBytes int64) ([]Interval, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, gwerr.IoError("partition.BuildIntervals", dir, err)
	}

	var intervals []Interval
	var (
		idx     int
		curLo   uint32
		cur     *bufio.Writer
		curFile *os.File
		size    int64
	)

	open := func(lo uint32) error {
		p := intervalPath(dir, idx)
		f, err := os.Create(p)
		if err != nil {
			return gwerr.IoError("partition.BuildIntervals", p, err)
		}
		curFile = f
		cur = bufio.NewWriterSize(f, 1<<20)
		curLo = lo
		size = 0
		return nil
	}

	flush := func(hi uint32) error {
		if cur == nil {
			return nil
		}
		if err := cur.Flush(); err != nil {
			return gwerr.IoError("partition.BuildIntervals", curFile.Name(), err)
		}
		if err := curFile.Close(); err != nil {
			return gwerr.IoError("partition.BuildIntervals", curFile.Name(), err)
		}
		intervals = append(intervals, Interval{Lo: curLo, Hi: hi, Path: curFile.Name()})
		idx++
		cur = nil
		return nil
	}

	for v := uint32(0); v < uint32(len(adj)); v++ {
		rec := blockfmt.Record{VertexID: v, Neighbors: adj[v]}
		recBytes := int64(rec.ByteSize())
		if recBytes > intervalBytes {
			return nil, gwerr.BlockTooSmall("partition.BuildIntervals", v, rec.ByteSize(), int(intervalBytes))
		}
		if cur == nil {
			if err := open(v); err != nil {
				return nil, err
			}
		} else if size+recBytes > intervalBytes {
			if err := flush(v); err != nil {
				return nil, err
			}
			if err := open(v); err != nil {
				return nil, err
			}
		}
		buf := blockfmt.EncodeRecord(nil, rec)
		n, err := cur.Write(buf)
		if err != nil {
			return nil, gwerr.IoError("partition.BuildIntervals", curFile.Name(), err)
		}
		size += int64(n)
	}
	if err := flush(uint32(len(adj))); err != nil {
		return nil, err
	}
	return intervals, nil
}

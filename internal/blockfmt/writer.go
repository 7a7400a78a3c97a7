package blockfmt

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/minio/gwalker/internal/gwerr"
)

// Writer streams one block's records to <dir>/block_<k>.adj and its
// begin-position sidecar to <dir>/block_<k>.idx. Records must be
// appended in ascending vertex id (C1 invariant); the writer does not
// re-check this since the partitioner already guarantees it by
// construction.
type Writer struct {
	dir    string
	k      int
	f      *os.File
	bw     *bufio.Writer
	idx    []uint64 // cumulative byte offsets, one per vertex plus a sentinel
	offset uint64
	vlo    uint32
}

// NewWriter opens block k for writing, covering vertices starting at vlo.
func NewWriter(dir string, k int, vlo uint32) (*Writer, error) {
	f, err := os.Create(blockAdjPath(dir, k))
	if err != nil {
		return nil, gwerr.IoError("blockfmt.NewWriter", blockAdjPath(dir, k), err)
	}
	return &Writer{
		dir: dir,
		k:   k,
		f:   f,
		bw:  bufio.NewWriterSize(f, 1<<20),
		idx: []uint64{0},
		vlo: vlo,
	}, nil
}

// Append writes one record and records its begin offset in the
// in-memory begin-position index being built for this block.
func (w *Writer) Append(r Record) error {
	buf := EncodeRecord(make([]byte, 0, r.ByteSize()), r)
	n, err := w.bw.Write(buf)
	if err != nil {
		return gwerr.IoError("blockfmt.Writer.Append", blockAdjPath(w.dir, w.k), err)
	}
	w.offset += uint64(n)
	w.idx = append(w.idx, w.offset)
	return nil
}

// Size reports the number of bytes written so far, used by the
// partitioner to decide when to close the block.
func (w *Writer) Size() int64 { return int64(w.offset) }

// NVertices reports how many records have been appended.
func (w *Writer) NVertices() int { return len(w.idx) - 1 }

// Close flushes the block file and writes its begin-position sidecar.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return gwerr.IoError("blockfmt.Writer.Close", blockAdjPath(w.dir, w.k), err)
	}
	if err := w.f.Close(); err != nil {
		return gwerr.IoError("blockfmt.Writer.Close", blockAdjPath(w.dir, w.k), err)
	}
	return writeIdxSidecar(blockIdxPath(w.dir, w.k), w.idx)
}

func writeIdxSidecar(path string, idx []uint64) error {
	buf := make([]byte, 8*len(idx))
	for i, off := range idx {
		binary.LittleEndian.PutUint64(buf[8*i:8*i+8], off)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return gwerr.IoError("blockfmt.writeIdxSidecar", path, err)
	}
	return nil
}

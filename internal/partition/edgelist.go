// Package partition implements the two-stage partitioner (C2): an
// interval build pass over a text edge list followed by a BFS
// reblocking pass that emits the final block files, block_of.u8 and
// per-block begin-position sidecars consumed by the scheduler.
package partition

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/minio/gwalker/internal/gwerr"
)

// Edge is one (src, dst) pair from the input edge list.
type Edge struct {
	Src, Dst uint32
}

// ReadEdges streams path once, skipping blank lines and lines starting
// with '#' or '%', dropping self-loops (src == dst), and failing with
// BadInput on a non-numeric token or a missing field.
func ReadEdges(path string, visit func(Edge) error) error {
	f, err := os.Open(path)
	if err != nil {
		return gwerr.IoError("partition.ReadEdges", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return gwerr.BadInput("partition.ReadEdges", fmt.Errorf("line %d: expected 2 fields, got %d", lineNo, len(fields)))
		}
		src, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return gwerr.BadInput("partition.ReadEdges", fmt.Errorf("line %d: bad src %q: %w", lineNo, fields[0], err))
		}
		dst, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return gwerr.BadInput("partition.ReadEdges", fmt.Errorf("line %d: bad dst %q: %w", lineNo, fields[1], err))
		}
		if src == dst {
			continue
		}
		if err := visit(Edge{Src: uint32(src), Dst: uint32(dst)}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return gwerr.IoError("partition.ReadEdges", path, err)
	}
	return nil
}

// BuildAdjacency reads the full edge list into a dense, densified
// adjacency slice of length V: vertices with no outgoing edges keep a
// zero-length (but present) entry.
func BuildAdjacency(path string, v uint32) ([][]uint32, error) {
	adj := make([][]uint32, v)
	err := ReadEdges(path, func(e Edge) error {
		if e.Src >= v || e.Dst >= v {
			return gwerr.BadInput("partition.BuildAdjacency", fmt.Errorf("edge (%d,%d) out of range [0,%d)", e.Src, e.Dst, v))
		}
		adj[e.Src] = append(adj[e.Src], e.Dst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

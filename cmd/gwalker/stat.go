package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/gwerr"
)

var statCmd = &cobra.Command{
	Use:   "stat BLOCK_DIR",
	Short: "Report diagnostics (vertex/edge counts, average out-degree, total bytes, block vertex ranges) for a partitioned graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		m, err := blockfmt.ReadManifest(dir)
		if err != nil {
			return err
		}

		var totalEdges uint64
		var totalBytes int64
		for k, rng := range m.Blocks {
			idx, err := loadBlockIndex(dir, k, rng)
			if err != nil {
				return err
			}
			totalBytes += int64(idx.Size())
			for v := rng.Lo; v < rng.Hi; v++ {
				length, ok := idx.RecordLen(v)
				if !ok {
					continue
				}
				// 8-byte record header, 4 bytes per neighbor.
				totalEdges += (length - 8) / 4
			}
		}

		avgDegree := float64(0)
		if m.V > 0 {
			avgDegree = float64(totalEdges) / float64(m.V)
		}

		fmt.Printf("vertices:    %d\n", m.V)
		fmt.Printf("blocks:      %d\n", m.B)
		fmt.Printf("edges:       %d\n", totalEdges)
		fmt.Printf("avg_degree:  %.4f\n", avgDegree)
		fmt.Printf("total_bytes: %d\n", totalBytes)
		for k, rng := range m.Blocks {
			fmt.Printf("  block %d: vertices [%d, %d)\n", k, rng.Lo, rng.Hi)
		}
		return nil
	},
}

func loadBlockIndex(dir string, k int, rng blockfmt.BlockRange) (blockfmt.BeginIndex, error) {
	cache := blockfmt.NewIndexCache(dir, 1)
	idx, err := cache.Get(k, rng.Lo)
	if err != nil {
		return blockfmt.BeginIndex{}, gwerr.IoError("stat", dir, err)
	}
	return idx, nil
}

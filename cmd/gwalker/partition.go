package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minio/gwalker/internal/engine"
	"github.com/minio/gwalker/internal/partition"
)

var partitionFlags = engine.DefaultConfig()

var partitionCmd = &cobra.Command{
	Use:   "partition FILE",
	Short: "Partition an edge list into blocks for out-of-core random walks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		partitionFlags.File = args[0]

		eng, err := engine.New(partitionFlags)
		if err != nil {
			return err
		}

		m, err := partition.Run(eng)
		if err != nil {
			return err
		}
		fmt.Printf("partitioned %d vertices into %d blocks\n", m.V, m.B)
		return nil
	},
}

func init() {
	f := partitionCmd.Flags()
	f.Uint32Var(&partitionFlags.NVertices, "nvertices", 0, "number of vertices in the graph (required)")
	f.Int64Var(&partitionFlags.InvlBytes, "invl_bytes", partitionFlags.InvlBytes, "stage A interval byte bound")
	f.Int64Var(&partitionFlags.BlockBytes, "block_bytes", partitionFlags.BlockBytes, "stage B block byte bound")
	f.IntVar(&partitionFlags.ChunkBytes, "chunk_sz", partitionFlags.ChunkBytes, "chunk cache chunk size recorded into manifest.toml")
	partitionCmd.MarkFlagRequired("nvertices")
	// nsteps/alpha must still validate even though partitioning never
	// uses them; the engine.Config they configure is shared with walk.
	partitionFlags.NSteps = 1
}

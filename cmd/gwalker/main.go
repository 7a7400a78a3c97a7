// Command gwalker drives the out-of-core random-walk engine: it
// partitions an edge list into blocks, runs alpha-restart walks over
// the partitioned graph, and reports per-block diagnostics.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minio/gwalker/internal/gwerr"
	"github.com/minio/gwalker/internal/tracing"
)

var jaegerEndpoint string

var rootCmd = &cobra.Command{
	Use:   "gwalker",
	Short: "Out-of-core vertex-centric random walks over graphs that do not fit in memory",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&jaegerEndpoint, "jaeger-endpoint", "", "Jaeger collector endpoint (tracing disabled if empty)")

	rootCmd.AddCommand(partitionCmd, walkCmd, statCmd)

	// Flags are parsed inside Execute, so the endpoint is only known once
	// a subcommand is about to run.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if jaegerEndpoint != "" {
			if err := tracing.InitTracing(jaegerEndpoint); err != nil {
				fmt.Fprintf(os.Stderr, "warning: tracing disabled: %v\n", err)
			}
		}
	}
	defer tracing.Shutdown(context.Background())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a command error to its process exit code, falling
// back to 1 for errors gwerr never wrapped (cobra usage errors, flag
// parsing failures).
func exitCodeFor(err error) int {
	if e, ok := gwerr.As(err); ok {
		return e.ExitCode()
	}
	return 1
}

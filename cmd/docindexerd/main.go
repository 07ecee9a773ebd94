package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zerolatency/doc-indexer/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docindexerd",
		Short: "Document indexing daemon",
		Long:  "Daemon that ingest pipelines enqueue work for: it chunks, embeds and indexes documents for semantic search",
	}

	rootCmd.AddCommand(cli.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

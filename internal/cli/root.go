// Package cli wires the ingestion pipeline to the interactive command line.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ehcaw/codegraph/internal/config"
	"github.com/ehcaw/codegraph/internal/embed"
	"github.com/ehcaw/codegraph/internal/indexer"
	"github.com/ehcaw/codegraph/internal/store"
)

var quietFlag bool

// rootCmd is the base command: codegraph [path] [port].
var rootCmd = &cobra.Command{
	Use:   "codegraph [path] [port]",
	Short: "Index a source tree into a graph and vector store",
	Long: `codegraph walks a source-code directory tree, extracts syntactic
entities with tree-sitter, chunks their text, embeds every chunk and writes
the resulting graph to a remote store over HTTP.

Positional arguments:
  path   directory to index (default "sample")
  port   store port (default 6969)`,
	Args: cobra.MaximumNArgs(2),
	RunE: run,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func run(cmd *cobra.Command, args []string) error {
	path := "sample"
	port := 6969

	if len(args) > 0 {
		path = args[0]
	}
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		port = p
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("\nConnecting to store instance at port %d\n", port)

	client := store.New(cfg.Store, port)
	provider := embed.NewGemini(cfg.Embedding)
	counters := indexer.NewCounters()

	jobs := make(chan indexer.EmbeddingJob, cfg.Pipeline.QueueCapacity)
	dispatcher := indexer.NewDispatcher(jobs, provider, client, counters, cfg.Pipeline.MaxConcurrent)

	ctx := cmd.Context()
	go dispatcher.Run(ctx)

	return menuLoop(ctx, cmd.InOrStdin(), path, client, cfg, jobs, counters)
}

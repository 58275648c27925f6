package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ehcaw/codegraph/internal/config"
	"github.com/ehcaw/codegraph/internal/indexer"
	"github.com/ehcaw/codegraph/internal/store"
)

// menuLoop runs the interactive 1/2/3 menu until exit. The root id from a
// successful ingest is remembered so update can target it within the same
// session.
func menuLoop(
	ctx context.Context,
	in io.Reader,
	path string,
	client *store.Client,
	cfg *config.Config,
	jobs chan<- indexer.EmbeddingJob,
	counters *indexer.Counters,
) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	rootName := filepath.Base(absPath)

	scanner := bufio.NewScanner(in)
	rootID := ""

	for {
		fmt.Println("\nWhat would you like to do?")
		fmt.Println()
		fmt.Printf("1 : Ingest %s\n", rootName)
		fmt.Printf("2 : Update %s\n", rootName)
		fmt.Println("3 : Exit")

		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		start := time.Now()

		switch input {
		case "1":
			id, err := runIngest(ctx, absPath, client, cfg, jobs, counters, start)
			if err != nil {
				return err
			}
			rootID = id
		case "2":
			if err := runUpdate(ctx, absPath, rootID, client, cfg, jobs, counters, start); err != nil {
				return err
			}
		case "3":
			return nil
		default:
			fmt.Println("Invalid input")
		}
	}
}

// runIngest performs one full ingestion pass and waits for the embedding
// backlog to drain before returning the new root id.
func runIngest(
	ctx context.Context,
	path string,
	client *store.Client,
	cfg *config.Config,
	jobs chan<- indexer.EmbeddingJob,
	counters *indexer.Counters,
	start time.Time,
) (string, error) {
	engine, err := buildEngine(client, cfg, jobs, counters)
	if err != nil {
		return "", err
	}

	rootID, err := engine.Ingest(ctx, path)
	if err != nil {
		return "", err
	}

	fmt.Printf("\nTotal chunks processed: %d\n", counters.TotalChunks())
	fmt.Printf("\nIngestion finished in %.0f seconds\n", time.Since(start).Seconds())
	waitForEmbeddings(counters, quietFlag)
	fmt.Printf("\nTotal time taken: %.2f seconds\n", time.Since(start).Seconds())
	counters.Reset()

	return rootID, nil
}

// runUpdate reconciles the tree against a previously ingested root.
func runUpdate(
	ctx context.Context,
	path, rootID string,
	client *store.Client,
	cfg *config.Config,
	jobs chan<- indexer.EmbeddingJob,
	counters *indexer.Counters,
	start time.Time,
) error {
	rootIDs, err := client.RootIDs(ctx)
	if err != nil {
		return err
	}
	if rootID == "" || !slices.Contains(rootIDs, rootID) {
		fmt.Println("\nNo root found")
		return nil
	}

	engine, err := buildEngine(client, cfg, jobs, counters)
	if err != nil {
		return err
	}

	fmt.Println("\nUpdating index...")
	if err := engine.Update(ctx, path, rootID, cfg.Pipeline.UpdateInterval); err != nil {
		return err
	}

	fmt.Printf("\nUpdate finished in %.0f seconds\n", time.Since(start).Seconds())
	waitForEmbeddings(counters, quietFlag)
	fmt.Printf("\nTotal time taken: %.2f seconds\n", time.Since(start).Seconds())
	counters.Reset()

	return nil
}

// buildEngine reloads index-types.json and file_types.json and constructs a
// fresh engine. The files are read once per pass; editing them mid-run has
// no effect on a pass already started.
func buildEngine(
	client *store.Client,
	cfg *config.Config,
	jobs chan<- indexer.EmbeddingJob,
	counters *indexer.Counters,
) (*indexer.Engine, error) {
	indexTypes, err := config.LoadIndexTypes("index-types.json")
	if err != nil {
		return nil, err
	}
	fileTypes, err := config.LoadFileTypes("file_types.json")
	if err != nil {
		return nil, err
	}
	return indexer.NewEngine(client, indexTypes, fileTypes, cfg, jobs, counters)
}

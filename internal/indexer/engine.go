// Package indexer implements the ingestion and update pipeline: the
// directory walker, the entity extractor, the chunker, the embedding
// dispatcher and the incremental reconciler.
package indexer

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gobwas/glob"

	"github.com/ehcaw/codegraph/internal/config"
	"github.com/ehcaw/codegraph/internal/store"
)

// Engine drives ingestion and update against one graph store. The configs it
// holds are immutable after construction and shared by reference across the
// tasks the engine spawns.
type Engine struct {
	store      *store.Client
	indexTypes *config.IndexTypes
	fileTypes  *config.FileTypes
	chunkSize  int
	ignore     []glob.Glob
	jobs       chan<- EmbeddingJob
	counters   *Counters
}

// NewEngine creates an engine. The jobs channel feeds the embedding
// dispatcher; the engine only produces onto it.
func NewEngine(
	client *store.Client,
	indexTypes *config.IndexTypes,
	fileTypes *config.FileTypes,
	cfg *config.Config,
	jobs chan<- EmbeddingJob,
	counters *Counters,
) (*Engine, error) {
	ignore := make([]glob.Glob, 0, len(cfg.Walk.Ignore))
	for _, pattern := range cfg.Walk.Ignore {
		g, err := glob.Compile(strings.TrimSuffix(pattern, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		ignore = append(ignore, g)
	}

	return &Engine{
		store:      client,
		indexTypes: indexTypes,
		fileTypes:  fileTypes,
		chunkSize:  cfg.Chunking.TargetSize,
		ignore:     ignore,
		jobs:       jobs,
		counters:   counters,
	}, nil
}

// listEntries reads one directory level, dropping ignored names. Recursion
// into subdirectories is explicit at the call sites.
func (e *Engine) listEntries(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	kept := entries[:0]
	for _, entry := range entries {
		if e.ignored(entry.Name()) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept, nil
}

func (e *Engine) ignored(name string) bool {
	for _, g := range e.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// enqueue hands a chunk to the dispatcher. The send is non-blocking; when
// the channel is full a detached goroutine performs the blocking send so the
// walk is never stalled behind the embedding queue.
func (e *Engine) enqueue(job EmbeddingJob) {
	if job.Chunk == "" {
		return
	}
	select {
	case e.jobs <- job:
	default:
		go func() {
			e.jobs <- job
		}()
	}
}

// emitChunks chunks text and enqueues one embedding job per chunk on behalf
// of the given super entity.
func (e *Engine) emitChunks(text, entityID string) {
	chunks := Chunk(text, e.chunkSize)
	e.counters.AddTotal(len(chunks))
	for _, chunk := range chunks {
		e.enqueue(EmbeddingJob{Chunk: chunk, EntityID: entityID})
	}
}

func logSkip(what, name string, err error) {
	log.Printf("Skipped %s %s: %v", what, name, err)
}

package indexer

import (
	"context"
	"log"

	"golang.org/x/sync/semaphore"

	"github.com/ehcaw/codegraph/internal/embed"
	"github.com/ehcaw/codegraph/internal/store"
)

// EmbeddingJob is one chunk awaiting embedding and storage.
type EmbeddingJob struct {
	Chunk    string
	EntityID string
}

// Dispatcher is the single process-wide consumer of the embedding job
// channel. It embeds each chunk and posts the vector to the store, keeping at
// most maxConcurrent jobs in flight. Failures are logged and counted as
// completed; a queued job never disappears silently.
type Dispatcher struct {
	jobs     <-chan EmbeddingJob
	provider embed.Provider
	store    *store.Client
	counters *Counters
	sem      *semaphore.Weighted
}

// NewDispatcher creates a dispatcher over the given job channel.
func NewDispatcher(jobs <-chan EmbeddingJob, provider embed.Provider, client *store.Client, counters *Counters, maxConcurrent int) *Dispatcher {
	return &Dispatcher{
		jobs:     jobs,
		provider: provider,
		store:    client,
		counters: counters,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Run consumes jobs until the channel is closed or the context is cancelled.
// It is meant to run in its own goroutine for the life of the process.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.jobs:
			if !ok {
				return
			}
			if err := d.sem.Acquire(ctx, 1); err != nil {
				return
			}
			go func(job EmbeddingJob) {
				defer d.sem.Release(1)
				d.process(ctx, job)
			}(job)
		}
	}
}

// process embeds one chunk and stores the vector. The pending counter is
// bumped before any network call and the completed counter always follows,
// so the wait loop terminates even when a job fails. An empty chunk is
// accounted the same way before being dropped; every job that reaches the
// dispatcher ends up completed.
func (d *Dispatcher) process(ctx context.Context, job EmbeddingJob) {
	d.counters.MarkPending()
	defer d.counters.MarkCompleted()

	if job.Chunk == "" {
		return
	}

	vector, err := d.provider.Embed(ctx, job.Chunk)
	if err != nil {
		log.Printf("Failed to embed chunk for entity %s: %v", job.EntityID, err)
		return
	}

	if err := d.store.EmbedSuperEntity(ctx, job.EntityID, vector); err != nil {
		log.Printf("Failed to post embedding for entity %s: %v", job.EntityID, err)
	}
}

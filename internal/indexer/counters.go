package indexer

import "sync/atomic"

// Counters tracks chunk and embedding progress across one ingest or update
// pass. They are used for progress reporting only and carry no correctness
// contract. Injected rather than global so tests can observe them.
type Counters struct {
	total     atomic.Int64 // chunks ever enqueued
	pending   atomic.Int64 // jobs accepted by the dispatcher
	completed atomic.Int64 // jobs that succeeded or definitively failed
}

// NewCounters creates a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{}
}

// AddTotal records n chunks produced by the chunker.
func (c *Counters) AddTotal(n int) {
	c.total.Add(int64(n))
}

// TotalChunks returns the number of chunks enqueued so far.
func (c *Counters) TotalChunks() int64 {
	return c.total.Load()
}

// MarkPending records a job accepted by the dispatcher.
func (c *Counters) MarkPending() {
	c.pending.Add(1)
}

// MarkCompleted records a job that finished, successfully or not.
func (c *Counters) MarkCompleted() {
	c.completed.Add(1)
}

// Pending returns the number of jobs the dispatcher has accepted.
func (c *Counters) Pending() int64 {
	return c.pending.Load()
}

// Completed returns the number of jobs that finished, successfully or not.
func (c *Counters) Completed() int64 {
	return c.completed.Load()
}

// Reset zeroes all counters between passes.
func (c *Counters) Reset() {
	c.total.Store(0)
	c.pending.Store(0)
	c.completed.Store(0)
}

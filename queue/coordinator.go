// Package queue runs document processing in the background.
//
// The Coordinator holds a FIFO of document ids in memory and feeds them
// to a pool of workers. State lives behind a single mutex; there is no
// broker and no persistence — a restart reloads pending documents from
// the store and re-enqueues them.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the coordinator lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Handler processes one document id. A non-nil return counts as an
// error; the worker carries on either way.
type Handler func(ctx context.Context, docID string) error

// Config tunes the coordinator. Zero values take defaults.
type Config struct {
	// Workers is the pool size. Default: 4.
	Workers int
	// BatchSize is how many ids a worker drains per wake, clamped to
	// [5, 100]. Default: 10.
	BatchSize int
	// IdleSleep is how long a worker sleeps when the queue is empty or
	// paused. Default: 250ms.
	IdleSleep time.Duration
	// Timeout bounds the processing of a single document. Default: 2m.
	Timeout time.Duration
	Logger  *slog.Logger
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BatchSize < 5 {
		c.BatchSize = 5
	}
	if c.BatchSize > 100 {
		c.BatchSize = 100
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = 250 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Status is a point-in-time snapshot of the coordinator.
type Status struct {
	State     State `json:"state"`
	Pending   int   `json:"pending"`
	Processed int   `json:"processed"`
	Errors    int   `json:"errors"`
	Workers   int   `json:"workers"`
}

// Coordinator dispatches queued document ids to workers.
type Coordinator struct {
	cfg     Config
	handler Handler

	mu        sync.Mutex
	state     State
	pending   []string
	inQueue   map[string]struct{}
	processed int
	errors    int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped coordinator. Call Start to spawn the workers.
func New(handler Handler, cfg Config) *Coordinator {
	cfg.defaults()
	return &Coordinator{
		cfg:     cfg,
		handler: handler,
		state:   StateStopped,
		inQueue: make(map[string]struct{}),
	}
}

// Start spawns the worker pool. Calling Start on a running or paused
// coordinator is a no-op.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStopped {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.state = StateRunning
	c.cfg.Logger.Info("queue: starting workers",
		"workers", c.cfg.Workers, "batch_size", c.cfg.BatchSize)
	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}
}

// Stop cancels the workers and waits for in-flight documents to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return
	}
	c.state = StateStopped
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.cfg.Logger.Info("queue: stopped")
}

// Pause stops dispatching new documents. In-flight work finishes.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		c.state = StatePaused
		c.cfg.Logger.Info("queue: paused")
	}
}

// Resume re-enables dispatching after a Pause.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePaused {
		c.state = StateRunning
		c.cfg.Logger.Info("queue: resumed")
	}
}

// Enqueue appends ids to the queue, skipping ids already pending.
// Returns how many were actually added.
func (c *Coordinator) Enqueue(ids ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := 0
	for _, id := range ids {
		if _, dup := c.inQueue[id]; dup {
			continue
		}
		c.inQueue[id] = struct{}{}
		c.pending = append(c.pending, id)
		added++
	}
	if added > 0 {
		c.cfg.Logger.Info("queue: enqueued", "added", added, "pending", len(c.pending))
	}
	return added
}

// Clear drops all pending ids and returns how many were dropped.
// In-flight documents are unaffected.
func (c *Coordinator) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.pending)
	c.pending = nil
	c.inQueue = make(map[string]struct{})
	if n > 0 {
		c.cfg.Logger.Info("queue: cleared", "dropped", n)
	}
	return n
}

// Status returns a consistent snapshot of the coordinator state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:     c.state,
		Pending:   len(c.pending),
		Processed: c.processed,
		Errors:    c.errors,
		Workers:   c.cfg.Workers,
	}
}

// pop drains up to n ids from the head of the queue. Returns nil when
// paused, stopped, or empty.
func (c *Coordinator) pop(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning || len(c.pending) == 0 {
		return nil
	}
	if n > len(c.pending) {
		n = len(c.pending)
	}
	batch := make([]string, n)
	copy(batch, c.pending[:n])
	c.pending = c.pending[n:]
	for _, id := range batch {
		delete(c.inQueue, id)
	}
	return batch
}

func (c *Coordinator) worker(ctx context.Context, n int) {
	defer c.wg.Done()
	log := c.cfg.Logger.With("worker", n)

	for {
		if ctx.Err() != nil {
			return
		}
		batch := c.pop(c.cfg.BatchSize)
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.IdleSleep):
			}
			continue
		}
		for _, id := range batch {
			if ctx.Err() != nil {
				return
			}
			c.process(ctx, log, id)
		}
	}
}

// process runs the handler for one document under the per-document
// timeout and records the outcome. A handler failure never kills the
// worker.
func (c *Coordinator) process(ctx context.Context, log *slog.Logger, id string) {
	// Detached from the worker context so Stop lets the in-flight
	// document run to completion; only the timeout bounds it.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := c.handler(dctx, id)

	c.mu.Lock()
	if err != nil {
		c.errors++
	} else {
		c.processed++
	}
	c.mu.Unlock()

	if err != nil {
		log.Warn("queue: document failed", "id", id, "error", err, "elapsed", time.Since(start))
		return
	}
	log.Info("queue: document processed", "id", id, "elapsed", time.Since(start))
}

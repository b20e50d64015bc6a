// Package runner schedules capability calls on a bounded worker pool and
// streams completions back to the interactive loop.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

const (
	jobBuffer      = 16
	deliveryBuffer = 16
	retryDelay     = 500 * time.Millisecond
)

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

type job struct {
	req domain.OperationRequest
	seq uint64
	ctx context.Context
}

// Core runs submitted requests on a fixed pool of workers. Sequence numbers
// are monotonic per correlation id; a superseding submission cancels the
// previous in-flight request for the same correlation before it is queued.
type Core struct {
	factory ports.ProviderFactory
	log     ports.Logger

	jobs       chan job
	deliveries chan domain.Delivery

	mu    sync.Mutex
	seqs  map[string]uint64
	live  map[string]inflight
	delay time.Duration

	base      context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewCore starts poolSize workers.
func NewCore(factory ports.ProviderFactory, poolSize int, log ports.Logger) *Core {
	if poolSize < 1 {
		poolSize = 1
	}
	base, cancelAll := context.WithCancel(context.Background())
	c := &Core{
		factory:    factory,
		log:        log,
		jobs:       make(chan job, jobBuffer),
		deliveries: make(chan domain.Delivery, deliveryBuffer),
		seqs:       make(map[string]uint64),
		live:       make(map[string]inflight),
		delay:      retryDelay,
		base:       base,
		cancelAll:  cancelAll,
	}
	for i := 0; i < poolSize; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// Submit queues the request and returns its sequence number. The number is
// already current when Submit returns, so a consumer comparing against
// Current sees its own submission.
func (c *Core) Submit(req domain.OperationRequest) uint64 {
	c.mu.Lock()
	seq := c.seqs[req.CorrelationID] + 1
	c.seqs[req.CorrelationID] = seq
	if req.Supersede {
		if prev, ok := c.live[req.CorrelationID]; ok {
			prev.cancel()
		}
	}
	ctx, cancel := context.WithCancel(c.base)
	c.live[req.CorrelationID] = inflight{seq: seq, cancel: cancel}
	c.mu.Unlock()

	c.jobs <- job{req: req, seq: seq, ctx: ctx}
	return seq
}

// CancelCorrelation cancels the in-flight request for the correlation, if any.
func (c *Core) CancelCorrelation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.live[id]; ok {
		entry.cancel()
	}
}

// Deliveries returns the completion stream.
func (c *Core) Deliveries() <-chan domain.Delivery {
	return c.deliveries
}

// Current reports the latest issued sequence number for the correlation.
func (c *Core) Current(correlationID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seqs[correlationID]
}

// Close cancels all in-flight work and stops the workers. Pending deliveries
// remain readable until the channel is drained.
func (c *Core) Close() {
	c.closeOnce.Do(func() {
		c.cancelAll()
		close(c.jobs)
		c.wg.Wait()
		close(c.deliveries)
	})
}

func (c *Core) worker() {
	defer c.wg.Done()
	for j := range c.jobs {
		text, err := c.execute(j.ctx, j.req)
		c.finish(j.req.CorrelationID, j.seq)
		select {
		case c.deliveries <- domain.Delivery{Request: j.req, Seq: j.seq, Text: text, Err: err}:
		case <-c.base.Done():
			return
		}
	}
}

// execute runs one capability call with a single retry on transient failure.
func (c *Core) execute(ctx context.Context, req domain.OperationRequest) (string, error) {
	provider, err := c.factory.ForModel(req.Model)
	if err != nil {
		return "", err
	}
	invoke := ports.InvokeRequest{
		SystemInstruction: req.SystemInstruction,
		Prompt:            req.Prompt,
		ReasoningEffort:   req.ReasoningEffort,
	}

	text, err := provider.Invoke(ctx, invoke)
	if err == nil || !domain.IsTransient(err) {
		return text, err
	}

	c.log.Warn("transient capability failure, retrying once", map[string]interface{}{
		"provider":  provider.Name(),
		"operation": req.OperationName,
		"error":     err.Error(),
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.delay):
	}
	return provider.Invoke(ctx, invoke)
}

// finish releases the in-flight entry if it still belongs to this seq.
func (c *Core) finish(correlationID string, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.live[correlationID]; ok && entry.seq == seq {
		entry.cancel()
		delete(c.live, correlationID)
	}
}

var _ ports.ExecutionCore = (*Core)(nil)

package exec

import (
	"context"
	"sync/atomic"

	"main/internal/schema"
	"main/pkg/exception"
)

// Request is one queued submission. Result delivery is optional and
// non-blocking; callers that care allocate a buffered channel.
type Request struct {
	Order   []byte
	Results chan<- Result
}

// Result pairs the acknowledgement with the submission error.
type Result struct {
	Ack schema.OrderAck
	Err error
}

// Pool drains queued submissions through the adapter with a fixed worker
// count, for callers that want fire-and-forget ordering instead of an
// awaited call.
type Pool struct {
	adapter *Adapter
	running atomic.Bool
	worker  int
	queue   chan Request
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(adapter *Adapter, workerCount, queueCap int) (*Pool, error) {
	if adapter == nil {
		return nil, exception.ErrOrderNilAdapter
	}
	if workerCount <= 0 || queueCap <= 0 {
		return nil, exception.ErrOrderInvalidWorker
	}
	return &Pool{
		adapter: adapter,
		worker:  workerCount,
		queue:   make(chan Request, queueCap),
	}, nil
}

// Handle enqueues a submission without blocking.
func (p *Pool) Handle(req Request) error {
	select {
	case p.queue <- req:
		return nil
	default:
		return exception.ErrOrderQueueFull
	}
}

// Run starts the workers. Calling it twice is a no-op.
func (p *Pool) Run(ctx context.Context) {
	if p.running.Swap(true) {
		return
	}

	for range p.worker {
		go workerSubmit(ctx, p.queue, p.adapter)
	}
}

func workerSubmit(ctx context.Context, queue chan Request, adapter *Adapter) {
	for {
		select {
		case req := <-queue:
			ack, err := adapter.SendOrder(ctx, req.Order)
			if req.Results == nil {
				continue
			}
			select {
			case req.Results <- Result{Ack: ack, Err: err}:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

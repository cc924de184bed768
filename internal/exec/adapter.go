package exec

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	werrors "github.com/yanun0323/errors"

	"main/internal/codec"
	"main/internal/obs"
	"main/internal/schema"
	"main/internal/signing"
	"main/pkg/backoff"
	"main/pkg/exception"
)

// Config controls submission behavior.
type Config struct {
	Checker CheckerConfig `json:"checker"`

	// AckTimeout bounds the wait for an acknowledgement. The pre-trade
	// path is not covered by it; a failed check returns immediately.
	AckTimeout time.Duration `json:"ackTimeout"`

	// MaxRetries bounds transparent retries after connection failures.
	// Validation failures and timeouts are never retried.
	MaxRetries int `json:"maxRetries"`

	RetryBackoff backoff.Backoff `json:"retryBackoff"`

	// SignKeyID enables outbound authentication: when set, the adapter
	// fetches this key and appends a MAC to every submission frame.
	SignKeyID string `json:"signKeyID"`
}

// Adapter is the execution frontend: pre-trade validation, order id
// allocation and asynchronous submission to the boundary transport. Safe
// for concurrent use; the order id counter is its only mutable state.
type Adapter struct {
	cfg       Config
	checker   *Checker
	transport Transport
	signer    *signing.Service
	sink      obs.Sink
	metrics   *obs.Metrics
	trace     *obs.TraceGenerator

	nextOrderID atomic.Uint64
}

// NewAdapter wires the adapter. Transport is required. Signer may be nil
// when SignKeyID is empty; sink and metrics may be nil.
func NewAdapter(cfg Config, checker *Checker, transport Transport, signer *signing.Service, sink obs.Sink, metrics *obs.Metrics) (*Adapter, error) {
	if transport == nil {
		return nil, exception.ErrOrderNilTransport
	}
	if checker == nil {
		checker = NewChecker(cfg.Checker, nil, nil, nil)
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 2 * time.Second
	}
	if cfg.SignKeyID != "" && signer == nil {
		return nil, exception.ErrInvalidArgument
	}
	return &Adapter{
		cfg:       cfg,
		checker:   checker,
		transport: transport,
		signer:    signer,
		sink:      sink,
		metrics:   metrics,
		trace:     obs.NewTraceGenerator(0),
	}, nil
}

// PreTradeCheck validates an order payload without submitting it. It runs
// no I/O and allocates no order id; a failure is a terminal validation
// error that retrying cannot fix.
func (a *Adapter) PreTradeCheck(order []byte) error {
	if a == nil {
		return exception.ErrOrderNilAdapter
	}
	if reason := a.checker.Check(order); reason != schema.RejectReasonNone {
		return werrors.Wrap(exception.ErrOrderValidation, reason.String())
	}
	return nil
}

type sendResult struct {
	ack schema.OrderAck
	err error
}

// SendOrder runs the pre-trade check, then dispatches the order and waits
// for acknowledgement, timeout, or caller cancellation. Connection failures
// are retried with backoff inside this one logical call. The result is
// delivered at most once: after a timeout or cancellation no late
// acknowledgement reaches the caller.
func (a *Adapter) SendOrder(ctx context.Context, order []byte) (schema.OrderAck, error) {
	if a == nil {
		return schema.OrderAck{}, exception.ErrOrderNilAdapter
	}

	start := time.Now()
	traceID := a.trace.Next()
	a.emit(schema.NewStageEvent(schema.StageReceived, schema.OutcomePass, traceID, 0))

	reason := a.checker.Check(order)
	checked := schema.NewStageEvent(schema.StageChecked, schema.OutcomePass, traceID, 0)
	checked.LatencyNs = time.Since(start).Nanoseconds()
	if reason != schema.RejectReasonNone {
		checked.Outcome = schema.OutcomeReject
		checked.Reason = reason
		a.emit(checked)
		return schema.OrderAck{}, werrors.Wrap(exception.ErrOrderValidation, reason.String())
	}
	a.emit(checked)

	orderID := a.nextOrderID.Add(1)
	sub := codec.Submission{OrderID: orderID, Payload: order}
	if a.cfg.SignKeyID != "" {
		mac, err := a.signer.SignAs(ctx, a.cfg.SignKeyID, order)
		if err != nil {
			return schema.OrderAck{}, werrors.Wrap(err, "authenticate submission")
		}
		sub.MAC = mac
		sub.Flags |= codec.SubmissionFlagSigned
	}

	sendCtx, cancel := context.WithTimeout(ctx, a.cfg.AckTimeout)
	defer cancel()

	a.emit(schema.NewStageEvent(schema.StageSubmitted, schema.OutcomePass, traceID, orderID))

	results := make(chan sendResult, 1)
	go a.dispatch(sendCtx, sub, results)

	acked := schema.NewStageEvent(schema.StageAcknowledged, schema.OutcomeUnknown, traceID, orderID)
	select {
	case res := <-results:
		acked.LatencyNs = time.Since(start).Nanoseconds()
		if res.err != nil {
			acked.Outcome = schema.OutcomeError
			a.emit(acked)
			return schema.OrderAck{}, res.err
		}
		if res.ack.Accepted {
			acked.Outcome = schema.OutcomeAccept
		} else {
			acked.Outcome = schema.OutcomeReject
			acked.Reason = res.ack.Reason
		}
		a.emit(acked)
		return res.ack, nil

	case <-sendCtx.Done():
		acked.LatencyNs = time.Since(start).Nanoseconds()
		a.cancelInFlight(orderID)
		if ctx.Err() != nil {
			acked.Outcome = schema.OutcomeCancel
			a.emit(acked)
			return schema.OrderAck{}, exception.ErrOrderCancelled
		}
		acked.Outcome = schema.OutcomeTimeout
		a.emit(acked)
		return schema.OrderAck{}, exception.ErrOrderTimeout
	}
}

// dispatch pushes the frame through the transport, retrying connection
// failures up to the configured bound. The buffered channel keeps the
// result from blocking a caller that already gave up.
func (a *Adapter) dispatch(ctx context.Context, sub codec.Submission, results chan<- sendResult) {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return
		}
		ack, err := a.transport.Send(ctx, sub)
		if err == nil {
			results <- sendResult{ack: ack}
			return
		}
		// Context expiry surfaces through the select in SendOrder, not as
		// a transport failure.
		if ctx.Err() != nil {
			return
		}
		if !errors.Is(err, exception.ErrOrderConnection) || attempt >= a.cfg.MaxRetries {
			results <- sendResult{err: err}
			return
		}
		a.metrics.IncRetry()

		wait := a.cfg.RetryBackoff.Next(attempt + 1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// cancelInFlight fires the best-effort cancel signal for an order that may
// already have reached the boundary.
func (a *Adapter) cancelInFlight(orderID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.transport.CancelOrder(ctx, orderID)
	}()
}

// LastOrderID returns the most recently allocated order id.
func (a *Adapter) LastOrderID() uint64 {
	return a.nextOrderID.Load()
}

func (a *Adapter) emit(event schema.StageEvent) {
	if a.sink != nil {
		a.sink.Emit(event)
	}
}

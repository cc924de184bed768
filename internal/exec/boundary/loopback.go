// Package boundary provides the execution-boundary transports: an
// in-process loopback for tests and single-binary runs, and a Unix domain
// socket pair for out-of-process deployment. Both speak the codec
// submission frame, so golden vectors hold across deployment modes.
package boundary

import (
	"context"
	"sync/atomic"
	"time"

	"main/internal/codec"
	"main/internal/exec"
	"main/internal/schema"
	"main/internal/signing"
	"main/pkg/exception"
)

// LoopbackConfig shapes the loopback responses.
type LoopbackConfig struct {
	// Delay before each acknowledgement, to exercise timeout paths.
	Delay time.Duration
	// FailFirst makes the first N sends fail with a connection error.
	FailFirst int64
	// Reject, when non-zero, rejects every order with this reason.
	Reject schema.RejectReason
}

// Loopback acknowledges submissions in-process. When given a verify key it
// rejects frames whose MAC does not authenticate the payload.
type Loopback struct {
	cfg       LoopbackConfig
	remaining atomic.Int64
	cancels   atomic.Int64

	verifier  *signing.Service
	verifyKey signing.Key
	verify    bool
}

var _ exec.Transport = (*Loopback)(nil)

// NewLoopback creates the loopback transport.
func NewLoopback(cfg LoopbackConfig) *Loopback {
	l := &Loopback{cfg: cfg}
	l.remaining.Store(cfg.FailFirst)
	return l
}

// RequireSignature makes the loopback verify every frame's MAC with key.
func (l *Loopback) RequireSignature(service *signing.Service, key signing.Key) {
	l.verifier = service
	l.verifyKey = key
	l.verify = true
}

// Send acknowledges the frame according to the configured policy.
func (l *Loopback) Send(ctx context.Context, sub codec.Submission) (schema.OrderAck, error) {
	if l.remaining.Add(-1) >= 0 {
		return schema.OrderAck{}, exception.ErrOrderConnection
	}

	if l.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
			return schema.OrderAck{}, ctx.Err()
		case <-time.After(l.cfg.Delay):
		}
	}

	ack := schema.OrderAck{OrderID: sub.OrderID, Accepted: true}
	switch {
	case l.verify && (!sub.Signed() || !l.verifier.VerifyKey(l.verifyKey, sub.Payload, sub.MAC)):
		ack.Accepted = false
		ack.Reason = schema.RejectReasonBadSignature
	case l.cfg.Reject != schema.RejectReasonNone:
		ack.Accepted = false
		ack.Reason = l.cfg.Reject
	}
	return ack, nil
}

// CancelOrder counts best-effort cancels; the loopback has nothing to
// actually cancel.
func (l *Loopback) CancelOrder(context.Context, uint64) error {
	l.cancels.Add(1)
	return nil
}

// Cancels returns how many cancel signals were received.
func (l *Loopback) Cancels() int64 {
	return l.cancels.Load()
}

package exec

import (
	"context"

	"main/internal/codec"
	"main/internal/schema"
)

// Transport carries one submission frame to the execution boundary and
// returns its acknowledgement. Implementations classify delivery failures
// as exception.ErrOrderConnection so the adapter knows what is retryable;
// any other error is terminal for the submission.
type Transport interface {
	Send(ctx context.Context, sub codec.Submission) (schema.OrderAck, error)

	// CancelOrder is the best-effort cancel signal for an order that was
	// already dispatched. Implementations without a cancel path return nil.
	CancelOrder(ctx context.Context, orderID uint64) error
}

// PositionSource supplies the current position per symbol for risk checks.
// The zero position is assumed when nil.
type PositionSource interface {
	Position(symbol schema.SymbolID) schema.Quantity
}

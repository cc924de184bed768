package risk

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Config defines simple business risk limits. Zero values disable a check.
type Config struct {
	KillSwitch       bool            `json:"killSwitch"`
	MaxOrderQty      schema.Quantity `json:"maxOrderQty"`
	MaxOrderNotional schema.Notional `json:"maxOrderNotional"`
	MaxPosition      schema.Quantity `json:"maxPosition"`
	OrderRateLimit   int64           `json:"orderRateLimit"`
	OrderRateWindow  time.Duration   `json:"orderRateWindow"`
}

// StateView is the position snapshot supplied by the caller. The engine
// never fetches state itself; pre-trade evaluation must stay I/O free.
type StateView struct {
	Position schema.Quantity
	Now      int64
}

// Engine evaluates order intents against static limits. Safe for
// concurrent use; the rate window is the only mutable state and is kept
// lock-free so evaluation stays off the latency budget.
type Engine struct {
	cfg             Config
	rateWindowStart atomic.Int64
	rateCount       atomic.Int64
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate returns RejectReasonNone when the intent passes every enabled
// check, otherwise the first limit it violates.
func (e *Engine) Evaluate(intent schema.OrderIntent, state StateView) schema.RejectReason {
	if e == nil {
		return schema.RejectReasonNone
	}

	if e.cfg.KillSwitch {
		return schema.RejectReasonKillSwitch
	}

	now := state.Now
	if now == 0 {
		now = time.Now().UTC().UnixNano()
	}
	if reason := e.applyRateWindow(now); reason != schema.RejectReasonNone {
		return reason
	}

	if e.cfg.MaxOrderQty > 0 && intent.Qty > e.cfg.MaxOrderQty {
		return schema.RejectReasonMaxQty
	}

	notional, overflow := mulNotional(intent.Price, intent.Qty)
	if overflow {
		return schema.RejectReasonMaxNotional
	}
	if e.cfg.MaxOrderNotional > 0 && notional > e.cfg.MaxOrderNotional {
		return schema.RejectReasonMaxNotional
	}

	nextPos := applySide(state.Position, intent.Side, intent.Qty)
	if e.cfg.MaxPosition > 0 && absQuantity(nextPos) > e.cfg.MaxPosition {
		return schema.RejectReasonPositionLimit
	}

	return schema.RejectReasonNone
}

func (e *Engine) applyRateWindow(now int64) schema.RejectReason {
	if e.cfg.OrderRateLimit <= 0 || e.cfg.OrderRateWindow <= 0 {
		return schema.RejectReasonNone
	}

	window := int64(e.cfg.OrderRateWindow)
	start := e.rateWindowStart.Load()
	if start == 0 || now-start >= window {
		if e.rateWindowStart.CompareAndSwap(start, now) {
			e.rateCount.Store(0)
		}
	}
	if e.rateCount.Add(1) > e.cfg.OrderRateLimit {
		return schema.RejectReasonRateLimit
	}
	return schema.RejectReasonNone
}

func mulNotional(price schema.Price, qty schema.Quantity) (schema.Notional, bool) {
	p := int64(price)
	q := int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	if p < 0 {
		p = -p
	}
	if q < 0 {
		q = -q
	}
	if p > maxInt64/q {
		return 0, true
	}
	return schema.Notional(int64(price) * int64(qty)), false
}

func applySide(pos schema.Quantity, side schema.OrderSide, qty schema.Quantity) schema.Quantity {
	switch side {
	case schema.OrderSideBuy:
		return schema.Quantity(int64(pos) + int64(qty))
	case schema.OrderSideSell:
		return schema.Quantity(int64(pos) - int64(qty))
	default:
		return pos
	}
}

func absQuantity(q schema.Quantity) schema.Quantity {
	if q < 0 {
		return -q
	}
	return q
}

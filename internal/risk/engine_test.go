package risk

import (
	"testing"
	"time"

	"main/internal/schema"
)

func limitIntent(side schema.OrderSide, price schema.Price, qty schema.Quantity) schema.OrderIntent {
	return schema.OrderIntent{
		Side:  side,
		Type:  schema.OrderTypeLimit,
		Price: price,
		Qty:   qty,
	}
}

func TestEvaluatePasses(t *testing.T) {
	engine := NewEngine(Config{
		MaxOrderQty:      1_000,
		MaxOrderNotional: 1_000_000,
		MaxPosition:      5_000,
	})

	intent := limitIntent(schema.OrderSideBuy, 100, 500)
	if reason := engine.Evaluate(intent, StateView{}); reason != schema.RejectReasonNone {
		t.Fatalf("expected pass, got %v", reason)
	}
}

func TestEvaluateKillSwitch(t *testing.T) {
	engine := NewEngine(Config{KillSwitch: true})

	intent := limitIntent(schema.OrderSideBuy, 1, 1)
	if reason := engine.Evaluate(intent, StateView{}); reason != schema.RejectReasonKillSwitch {
		t.Fatalf("expected kill switch reject, got %v", reason)
	}
}

func TestEvaluateMaxQty(t *testing.T) {
	engine := NewEngine(Config{MaxOrderQty: 100})

	if reason := engine.Evaluate(limitIntent(schema.OrderSideBuy, 1, 100), StateView{}); reason != schema.RejectReasonNone {
		t.Fatalf("boundary qty should pass, got %v", reason)
	}
	if reason := engine.Evaluate(limitIntent(schema.OrderSideBuy, 1, 101), StateView{}); reason != schema.RejectReasonMaxQty {
		t.Fatalf("expected max qty reject, got %v", reason)
	}
}

func TestEvaluateMaxNotional(t *testing.T) {
	engine := NewEngine(Config{MaxOrderNotional: 10_000})

	if reason := engine.Evaluate(limitIntent(schema.OrderSideBuy, 100, 100), StateView{}); reason != schema.RejectReasonNone {
		t.Fatalf("boundary notional should pass, got %v", reason)
	}
	if reason := engine.Evaluate(limitIntent(schema.OrderSideBuy, 100, 101), StateView{}); reason != schema.RejectReasonMaxNotional {
		t.Fatalf("expected notional reject, got %v", reason)
	}
}

func TestEvaluateNotionalOverflow(t *testing.T) {
	engine := NewEngine(Config{MaxOrderNotional: maxInt64})

	intent := limitIntent(schema.OrderSideBuy, schema.Price(maxInt64/2), 3)
	if reason := engine.Evaluate(intent, StateView{}); reason != schema.RejectReasonMaxNotional {
		t.Fatalf("expected overflow reject, got %v", reason)
	}
}

func TestEvaluatePositionLimit(t *testing.T) {
	engine := NewEngine(Config{MaxPosition: 1_000})

	buy := limitIntent(schema.OrderSideBuy, 1, 600)
	if reason := engine.Evaluate(buy, StateView{Position: 500}); reason != schema.RejectReasonPositionLimit {
		t.Fatalf("expected position reject, got %v", reason)
	}

	// Selling against a long position reduces exposure and must pass.
	sell := limitIntent(schema.OrderSideSell, 1, 600)
	if reason := engine.Evaluate(sell, StateView{Position: 500}); reason != schema.RejectReasonNone {
		t.Fatalf("risk-reducing sell should pass, got %v", reason)
	}

	// A short position counts by magnitude.
	short := limitIntent(schema.OrderSideSell, 1, 600)
	if reason := engine.Evaluate(short, StateView{Position: -500}); reason != schema.RejectReasonPositionLimit {
		t.Fatalf("expected short position reject, got %v", reason)
	}
}

func TestEvaluateRateLimit(t *testing.T) {
	engine := NewEngine(Config{
		OrderRateLimit:  3,
		OrderRateWindow: time.Second,
	})

	intent := limitIntent(schema.OrderSideBuy, 1, 1)
	now := time.Now().UTC().UnixNano()

	for i := range 3 {
		if reason := engine.Evaluate(intent, StateView{Now: now}); reason != schema.RejectReasonNone {
			t.Fatalf("order %d inside the window should pass, got %v", i, reason)
		}
	}
	if reason := engine.Evaluate(intent, StateView{Now: now}); reason != schema.RejectReasonRateLimit {
		t.Fatalf("expected rate limit reject, got %v", reason)
	}

	// A fresh window resets the counter.
	later := now + int64(2*time.Second)
	if reason := engine.Evaluate(intent, StateView{Now: later}); reason != schema.RejectReasonNone {
		t.Fatalf("order in new window should pass, got %v", reason)
	}
}

func TestEvaluateZeroConfigDisablesChecks(t *testing.T) {
	engine := NewEngine(Config{})

	intent := limitIntent(schema.OrderSideBuy, 1_000_000, 1_000_000)
	if reason := engine.Evaluate(intent, StateView{Position: 1 << 40}); reason != schema.RejectReasonNone {
		t.Fatalf("zero config should disable checks, got %v", reason)
	}
}

func TestEvaluateNilEngine(t *testing.T) {
	var engine *Engine
	if reason := engine.Evaluate(schema.OrderIntent{}, StateView{}); reason != schema.RejectReasonNone {
		t.Fatalf("nil engine should pass, got %v", reason)
	}
}

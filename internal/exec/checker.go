package exec

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/decimal"

	"main/internal/risk"
	"main/internal/schema"
)

// DefaultMaxPayloadSize bounds order payloads when no limit is configured.
const DefaultMaxPayloadSize = 64 * 1024

// Checker runs the pre-trade validation pipeline: structural constraints on
// the raw payload, then field and risk-limit checks when the payload parses
// as a structured intent. It performs no I/O and is safe for concurrent use.
type Checker struct {
	maxPayloadSize int
	registry       *schema.Registry
	defaultScale   schema.ScaleSpec
	engine         *risk.Engine
	positions      PositionSource
}

// CheckerConfig configures structural bounds and default scaling.
type CheckerConfig struct {
	MaxPayloadSize int              `json:"maxPayloadSize"`
	DefaultScale   schema.ScaleSpec `json:"defaultScale"`
}

// NewChecker builds a checker. Registry, engine and positions may each be
// nil; the corresponding checks are skipped.
func NewChecker(cfg CheckerConfig, registry *schema.Registry, engine *risk.Engine, positions PositionSource) *Checker {
	max := cfg.MaxPayloadSize
	if max <= 0 {
		max = DefaultMaxPayloadSize
	}
	scale := cfg.DefaultScale
	if scale.PriceScale <= 0 {
		scale.PriceScale = 8
	}
	if scale.QuantityScale <= 0 {
		scale.QuantityScale = 8
	}
	return &Checker{
		maxPayloadSize: max,
		registry:       registry,
		defaultScale:   scale,
		engine:         engine,
		positions:      positions,
	}
}

// Check validates one order payload and returns RejectReasonNone on pass.
func (c *Checker) Check(order []byte) schema.RejectReason {
	if len(order) == 0 {
		return schema.RejectReasonEmptyPayload
	}
	if len(order) > c.maxPayloadSize {
		return schema.RejectReasonPayloadTooLarge
	}

	if !looksStructured(order) {
		return schema.RejectReasonNone
	}

	intent, reason := c.parseIntent(order)
	if reason != schema.RejectReasonNone {
		return reason
	}

	if c.engine != nil {
		var position schema.Quantity
		if c.positions != nil {
			position = c.positions.Position(intent.SymbolID)
		}
		return c.engine.Evaluate(intent, risk.StateView{Position: position})
	}
	return schema.RejectReasonNone
}

// intentJSON is the structured order payload shape.
type intentJSON struct {
	Symbol      string          `json:"symbol"`
	Side        string          `json:"side"`
	Type        string          `json:"type"`
	TimeInForce string          `json:"timeInForce"`
	Price       decimal.Decimal `json:"price"`
	Qty         decimal.Decimal `json:"qty"`
}

func looksStructured(order []byte) bool {
	for _, b := range order {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func (c *Checker) parseIntent(order []byte) (schema.OrderIntent, schema.RejectReason) {
	var raw intentJSON
	if err := sonic.ConfigFastest.Unmarshal(order, &raw); err != nil {
		return schema.OrderIntent{}, schema.RejectReasonMalformedIntent
	}
	if raw.Symbol == "" {
		return schema.OrderIntent{}, schema.RejectReasonInvalidField
	}

	scale := c.defaultScale
	var symbolID schema.SymbolID
	if c.registry != nil {
		id, ok := c.registry.SymbolIDByName(raw.Symbol)
		if !ok {
			return schema.OrderIntent{}, schema.RejectReasonUnknownSymbol
		}
		symbolID = id
		if sym, ok := c.registry.Symbol(id); ok {
			scale = sym.Scale
		}
	}

	intent := schema.OrderIntent{SymbolID: symbolID}

	switch strings.ToLower(raw.Side) {
	case "buy":
		intent.Side = schema.OrderSideBuy
	case "sell":
		intent.Side = schema.OrderSideSell
	default:
		return schema.OrderIntent{}, schema.RejectReasonInvalidField
	}

	switch strings.ToLower(raw.Type) {
	case "", "limit":
		intent.Type = schema.OrderTypeLimit
	case "market":
		intent.Type = schema.OrderTypeMarket
	default:
		return schema.OrderIntent{}, schema.RejectReasonInvalidField
	}

	switch strings.ToUpper(raw.TimeInForce) {
	case "", "GTC":
		intent.TimeInForce = schema.TimeInForceGTC
	case "IOC":
		intent.TimeInForce = schema.TimeInForceIOC
	case "FOK":
		intent.TimeInForce = schema.TimeInForceFOK
	default:
		return schema.OrderIntent{}, schema.RejectReasonInvalidField
	}

	qty, err := schema.ParseScaled(raw.Qty.String(), scale.QuantityScale)
	if err != nil || qty <= 0 {
		return schema.OrderIntent{}, schema.RejectReasonInvalidField
	}
	intent.Qty = schema.Quantity(qty)

	priceText := raw.Price.String()
	if intent.Type == schema.OrderTypeLimit {
		price, err := schema.ParseScaled(priceText, scale.PriceScale)
		if err != nil || price <= 0 {
			return schema.OrderIntent{}, schema.RejectReasonInvalidField
		}
		intent.Price = schema.Price(price)
	}

	return intent, schema.RejectReasonNone
}

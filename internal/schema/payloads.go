package schema

// Price is a scaled integer. The scale is defined by configuration.
type Price int64

// Quantity is a scaled integer. The scale is defined by configuration.
type Quantity int64

// Notional is a scaled integer. The scale is defined by configuration.
type Notional int64

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

// OrderType describes order type.
type OrderType uint16

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeLimit
	OrderTypeMarket
)

// TimeInForce describes order time-in-force.
type TimeInForce uint16

const (
	TimeInForceUnknown TimeInForce = iota
	TimeInForceGTC
	TimeInForceIOC
	TimeInForceFOK
)

// OrderIntent is the structured view of an order payload. Opaque payloads
// never reach this form; risk checks only apply once an intent parses.
type OrderIntent struct {
	SymbolID    SymbolID
	Side        OrderSide
	Type        OrderType
	TimeInForce TimeInForce
	Flags       uint16
	Price       Price
	Qty         Quantity
}

// RejectReason is a coarse reason code for pre-trade and risk rejections.
type RejectReason uint16

const (
	RejectReasonNone RejectReason = iota
	RejectReasonEmptyPayload
	RejectReasonPayloadTooLarge
	RejectReasonMalformedIntent
	RejectReasonUnknownSymbol
	RejectReasonInvalidField
	RejectReasonKillSwitch
	RejectReasonMaxQty
	RejectReasonMaxNotional
	RejectReasonRateLimit
	RejectReasonPositionLimit
	RejectReasonBadSignature
)

// String returns a short human-readable reason.
func (r RejectReason) String() string {
	switch r {
	case RejectReasonNone:
		return ""
	case RejectReasonEmptyPayload:
		return "empty payload"
	case RejectReasonPayloadTooLarge:
		return "payload exceeds size bound"
	case RejectReasonMalformedIntent:
		return "malformed order intent"
	case RejectReasonUnknownSymbol:
		return "unknown symbol"
	case RejectReasonInvalidField:
		return "invalid order field"
	case RejectReasonKillSwitch:
		return "kill switch engaged"
	case RejectReasonMaxQty:
		return "order qty limit"
	case RejectReasonMaxNotional:
		return "order notional limit"
	case RejectReasonRateLimit:
		return "order rate limit"
	case RejectReasonPositionLimit:
		return "position limit"
	case RejectReasonBadSignature:
		return "bad signature"
	default:
		return "rejected"
	}
}

// OrderAck is the result of one submission attempt. Immutable once created;
// the adapter does not retain it.
type OrderAck struct {
	OrderID  uint64
	Accepted bool
	Reason   RejectReason
	Flags    uint16
	Reserved uint16
}

// ReasonText returns the optional human-readable rejection reason.
func (a OrderAck) ReasonText() string {
	if a.Accepted {
		return ""
	}
	return a.Reason.String()
}

package exception

import "github.com/yanun0323/errors"

var (
	ErrOrderValidation    = errors.New("order: pre-trade validation failed")
	ErrOrderConnection    = errors.New("order: execution boundary unreachable")
	ErrOrderTimeout       = errors.New("order: no acknowledgement within window")
	ErrOrderCancelled     = errors.New("order: submission cancelled")
	ErrOrderNilTransport  = errors.New("order: nil transport")
	ErrOrderNilAdapter    = errors.New("order: nil adapter")
	ErrOrderQueueFull     = errors.New("order: queue full")
	ErrOrderInvalidWorker = errors.New("order: invalid worker config")
	ErrOrderDecodeAck     = errors.New("order: decode acknowledgement")
)

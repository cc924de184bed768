package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const OrderAckPayloadSize = 16

const ackAcceptedFlag = 1

// EncodeOrderAck serializes an order acknowledgment into a fixed-size
// payload. The layout is shared by the in-process and socket deployments so
// golden vectors hold for both.
func EncodeOrderAck(dst []byte, ack schema.OrderAck) []byte {
	if cap(dst) < OrderAckPayloadSize {
		dst = make([]byte, OrderAckPayloadSize)
	} else {
		dst = dst[:OrderAckPayloadSize]
	}

	accepted := uint16(0)
	if ack.Accepted {
		accepted = ackAcceptedFlag
	}

	binary.LittleEndian.PutUint64(dst[0:8], ack.OrderID)
	binary.LittleEndian.PutUint16(dst[8:10], accepted)
	binary.LittleEndian.PutUint16(dst[10:12], uint16(ack.Reason))
	binary.LittleEndian.PutUint16(dst[12:14], ack.Flags)
	binary.LittleEndian.PutUint16(dst[14:16], ack.Reserved)

	return dst
}

// DecodeOrderAck parses a fixed-size order acknowledgment payload.
func DecodeOrderAck(src []byte) (schema.OrderAck, bool) {
	if len(src) < OrderAckPayloadSize {
		return schema.OrderAck{}, false
	}
	return schema.OrderAck{
		OrderID:  binary.LittleEndian.Uint64(src[0:8]),
		Accepted: binary.LittleEndian.Uint16(src[8:10])&ackAcceptedFlag != 0,
		Reason:   schema.RejectReason(binary.LittleEndian.Uint16(src[10:12])),
		Flags:    binary.LittleEndian.Uint16(src[12:14]),
		Reserved: binary.LittleEndian.Uint16(src[14:16]),
	}, true
}

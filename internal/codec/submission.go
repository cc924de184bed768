package codec

import (
	"encoding/binary"

	"main/internal/schema"
	"main/internal/signing"
)

// Submission frame layout (little-endian):
//
//	[0:2]   schema version
//	[2:4]   flags (bit 0: MAC appended)
//	[4:12]  order id
//	[12:16] payload length
//	[16:n]  payload bytes
//	[n:n+32] MAC when the signed flag is set
const (
	submissionHeaderSize = 16

	// SubmissionFlagSigned marks a frame carrying a trailing MAC.
	SubmissionFlagSigned uint16 = 1
	// SubmissionFlagCancel marks a best-effort cancel frame for a
	// previously dispatched order id. Cancel frames carry no payload.
	SubmissionFlagCancel uint16 = 2
)

// Submission is one outbound order frame for the execution boundary.
type Submission struct {
	OrderID uint64
	Flags   uint16
	Payload []byte
	MAC     signing.Signature
}

// Signed reports whether the frame carries a MAC.
func (s Submission) Signed() bool {
	return s.Flags&SubmissionFlagSigned != 0
}

// EncodeSubmission serializes a submission frame, appending to dst.
func EncodeSubmission(dst []byte, sub Submission) []byte {
	need := submissionHeaderSize + len(sub.Payload)
	if sub.Signed() {
		need += signing.SignatureSize
	}
	if cap(dst) < need {
		dst = make([]byte, need)
	} else {
		dst = dst[:need]
	}

	binary.LittleEndian.PutUint16(dst[0:2], schema.SchemaVersion)
	binary.LittleEndian.PutUint16(dst[2:4], sub.Flags)
	binary.LittleEndian.PutUint64(dst[4:12], sub.OrderID)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(len(sub.Payload)))
	copy(dst[submissionHeaderSize:], sub.Payload)
	if sub.Signed() {
		copy(dst[submissionHeaderSize+len(sub.Payload):], sub.MAC[:])
	}
	return dst
}

// DecodeSubmission parses a submission frame. The payload slice aliases src.
func DecodeSubmission(src []byte) (Submission, bool) {
	if len(src) < submissionHeaderSize {
		return Submission{}, false
	}
	flags := binary.LittleEndian.Uint16(src[2:4])
	payloadLen := int(binary.LittleEndian.Uint32(src[12:16]))

	need := submissionHeaderSize + payloadLen
	if flags&SubmissionFlagSigned != 0 {
		need += signing.SignatureSize
	}
	if len(src) < need {
		return Submission{}, false
	}

	sub := Submission{
		OrderID: binary.LittleEndian.Uint64(src[4:12]),
		Flags:   flags,
		Payload: src[submissionHeaderSize : submissionHeaderSize+payloadLen],
	}
	if sub.Signed() {
		copy(sub.MAC[:], src[submissionHeaderSize+payloadLen:])
	}
	return sub, true
}

package codec

import (
	"bytes"
	"testing"

	"main/internal/schema"
	"main/internal/signing"
)

func TestOrderAckRoundTrip(t *testing.T) {
	orig := schema.OrderAck{
		OrderID:  918273645,
		Accepted: true,
		Flags:    7,
		Reserved: 3,
	}

	encoded := EncodeOrderAck(nil, orig)
	if len(encoded) != OrderAckPayloadSize {
		t.Fatalf("encoded size %d, want %d", len(encoded), OrderAckPayloadSize)
	}

	decoded, ok := DecodeOrderAck(encoded)
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded != orig {
		t.Fatalf("round-trip mismatch: got %+v want %+v", decoded, orig)
	}
}

func TestOrderAckRejectedRoundTrip(t *testing.T) {
	orig := schema.OrderAck{
		OrderID: 1,
		Reason:  schema.RejectReasonMaxQty,
	}

	decoded, ok := DecodeOrderAck(EncodeOrderAck(nil, orig))
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded.Accepted {
		t.Fatal("rejected ack decoded as accepted")
	}
	if decoded.Reason != schema.RejectReasonMaxQty {
		t.Fatalf("reason %v, want %v", decoded.Reason, schema.RejectReasonMaxQty)
	}
}

func TestOrderAckDecodeShortBuffer(t *testing.T) {
	encoded := EncodeOrderAck(nil, schema.OrderAck{OrderID: 5})
	for size := range OrderAckPayloadSize {
		if _, ok := DecodeOrderAck(encoded[:size]); ok {
			t.Fatalf("decode accepted %d-byte buffer", size)
		}
	}
}

func TestOrderAckEncodeReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 64)
	encoded := EncodeOrderAck(buf, schema.OrderAck{OrderID: 9, Accepted: true})
	if &encoded[0] != &buf[:1][0] {
		t.Fatal("encode did not reuse the provided buffer")
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	orig := Submission{
		OrderID: 42,
		Payload: []byte(`{"symbol":"BTC-USD","side":"buy","qty":"1"}`),
	}

	decoded, ok := DecodeSubmission(EncodeSubmission(nil, orig))
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded.OrderID != orig.OrderID || decoded.Flags != orig.Flags {
		t.Fatalf("header mismatch: got %+v", decoded)
	}
	if !bytes.Equal(decoded.Payload, orig.Payload) {
		t.Fatal("payload mismatch")
	}
	if decoded.Signed() {
		t.Fatal("unsigned frame decoded as signed")
	}
}

func TestSubmissionSignedRoundTrip(t *testing.T) {
	service := signing.New(nil)
	key, err := service.Keygen(42)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	payload := []byte("order bytes")
	orig := Submission{
		OrderID: 7,
		Flags:   SubmissionFlagSigned,
		Payload: payload,
		MAC:     service.SignKey(key, payload),
	}

	decoded, ok := DecodeSubmission(EncodeSubmission(nil, orig))
	if !ok {
		t.Fatal("decode failed")
	}
	if !decoded.Signed() {
		t.Fatal("signed frame lost its flag")
	}
	if decoded.MAC != orig.MAC {
		t.Fatal("MAC mismatch after round-trip")
	}
	if !service.VerifyKey(key, decoded.Payload, decoded.MAC) {
		t.Fatal("decoded MAC does not authenticate the payload")
	}
}

func TestSubmissionCancelFrame(t *testing.T) {
	orig := Submission{
		OrderID: 1001,
		Flags:   SubmissionFlagCancel,
	}

	decoded, ok := DecodeSubmission(EncodeSubmission(nil, orig))
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded.Flags&SubmissionFlagCancel == 0 {
		t.Fatal("cancel flag lost")
	}
	if len(decoded.Payload) != 0 {
		t.Fatalf("cancel frame carries payload: %q", decoded.Payload)
	}
}

func TestSubmissionDecodeTruncated(t *testing.T) {
	encoded := EncodeSubmission(nil, Submission{OrderID: 3, Payload: []byte("abc")})

	for size := range len(encoded) {
		if _, ok := DecodeSubmission(encoded[:size]); ok {
			t.Fatalf("decode accepted %d of %d bytes", size, len(encoded))
		}
	}
}

func TestSubmissionDecodeTruncatedMAC(t *testing.T) {
	service := signing.New(nil)
	key, _ := service.Keygen(1)
	payload := []byte("abc")

	encoded := EncodeSubmission(nil, Submission{
		OrderID: 3,
		Flags:   SubmissionFlagSigned,
		Payload: payload,
		MAC:     service.SignKey(key, payload),
	})

	if _, ok := DecodeSubmission(encoded[:len(encoded)-1]); ok {
		t.Fatal("decode accepted frame with truncated MAC")
	}
}

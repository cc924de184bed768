package boundary

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/codec"
	"main/internal/exec"
	"main/internal/schema"
	"main/pkg/exception"
)

func startServer(t *testing.T, policy func(codec.Submission) schema.OrderAck) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "boundary.sock")
	server, err := NewUDSServer(path, policy)
	require.NoError(t, err)
	require.NoError(t, server.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = server.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = server.Close()
	})
	return path
}

func TestUDSRoundTrip(t *testing.T) {
	path := startServer(t, nil)

	transport, err := NewUDSTransport(path)
	require.NoError(t, err)

	ack, err := transport.Send(t.Context(), codec.Submission{
		OrderID: 77,
		Payload: []byte("over the socket"),
	})
	require.NoError(t, err)
	assert.True(t, ack.Accepted)
	assert.Equal(t, uint64(77), ack.OrderID)
}

func TestUDSPolicyReject(t *testing.T) {
	path := startServer(t, func(sub codec.Submission) schema.OrderAck {
		return schema.OrderAck{OrderID: sub.OrderID, Reason: schema.RejectReasonKillSwitch}
	})

	transport, err := NewUDSTransport(path)
	require.NoError(t, err)

	ack, err := transport.Send(t.Context(), codec.Submission{OrderID: 1, Payload: []byte("x")})
	require.NoError(t, err)
	assert.False(t, ack.Accepted)
	assert.Equal(t, schema.RejectReasonKillSwitch, ack.Reason)
}

func TestUDSSignedFrameSurvivesSocket(t *testing.T) {
	received := make(chan codec.Submission, 1)
	path := startServer(t, func(sub codec.Submission) schema.OrderAck {
		sub.Payload = append([]byte(nil), sub.Payload...)
		received <- sub
		return schema.OrderAck{OrderID: sub.OrderID, Accepted: true}
	})

	transport, err := NewUDSTransport(path)
	require.NoError(t, err)

	sub := codec.Submission{
		OrderID: 5,
		Flags:   codec.SubmissionFlagSigned,
		Payload: []byte("signed payload"),
	}
	for i := range sub.MAC {
		sub.MAC[i] = byte(i)
	}

	_, err = transport.Send(t.Context(), sub)
	require.NoError(t, err)

	seen := <-received
	assert.True(t, seen.Signed())
	assert.Equal(t, sub.MAC, seen.MAC)
	assert.Equal(t, sub.Payload, seen.Payload)
}

func TestUDSDialFailureIsConnectionError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nobody-home.sock")
	transport, err := NewUDSTransport(path)
	require.NoError(t, err)

	_, err = transport.Send(t.Context(), codec.Submission{OrderID: 1, Payload: []byte("x")})
	assert.ErrorIs(t, err, exception.ErrOrderConnection)
}

func TestUDSCancelFrame(t *testing.T) {
	path := startServer(t, nil)

	transport, err := NewUDSTransport(path)
	require.NoError(t, err)

	require.NoError(t, transport.CancelOrder(t.Context(), 99))

	// The server keeps serving submissions after a cancel frame.
	ack, err := transport.Send(t.Context(), codec.Submission{OrderID: 100, Payload: []byte("next")})
	require.NoError(t, err)
	assert.True(t, ack.Accepted)
}

func TestUDSAsAdapterTransport(t *testing.T) {
	path := startServer(t, nil)

	transport, err := NewUDSTransport(path)
	require.NoError(t, err)

	adapter, err := exec.NewAdapter(exec.Config{AckTimeout: time.Second}, nil, transport, nil, nil, nil)
	require.NoError(t, err)

	ack, err := adapter.SendOrder(t.Context(), []byte("end to end"))
	require.NoError(t, err)
	assert.True(t, ack.Accepted)
	assert.Equal(t, uint64(1), ack.OrderID)
}

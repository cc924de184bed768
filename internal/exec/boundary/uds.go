package boundary

import (
	"context"
	"encoding/binary"
	"io"
	"net"

	werrors "github.com/yanun0323/errors"

	"main/internal/codec"
	"main/internal/exec"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/uds"
)

// maxFrameSize bounds inbound frames on both ends of the socket.
const maxFrameSize = 1 << 20

// UDSTransport submits frames to an execution boundary listening on a Unix
// domain socket. Each submission uses one connection; the context deadline
// bounds dial, write and the ack read together.
type UDSTransport struct {
	client *uds.Client
}

var _ exec.Transport = (*UDSTransport)(nil)

// NewUDSTransport creates a transport for the given socket path.
func NewUDSTransport(path string) (*UDSTransport, error) {
	client, err := uds.NewClient(path)
	if err != nil {
		return nil, err
	}
	return &UDSTransport{client: client}, nil
}

// Send writes the frame and waits for the acknowledgement. Transport-level
// failures come back as connection errors so the adapter can retry them.
func (t *UDSTransport) Send(ctx context.Context, sub codec.Submission) (schema.OrderAck, error) {
	conn, err := t.client.DialContext(ctx)
	if err != nil {
		return schema.OrderAck{}, werrors.Wrap(exception.ErrOrderConnection, "dial boundary")
	}
	defer conn.Close()

	frame := codec.EncodeSubmission(nil, sub)
	if err := writeFrame(conn, frame); err != nil {
		return schema.OrderAck{}, werrors.Wrap(exception.ErrOrderConnection, "write submission")
	}

	reply, err := readFrame(conn)
	if err != nil {
		return schema.OrderAck{}, werrors.Wrap(exception.ErrOrderConnection, "read acknowledgement")
	}
	ack, ok := codec.DecodeOrderAck(reply)
	if !ok {
		return schema.OrderAck{}, exception.ErrOrderDecodeAck
	}
	return ack, nil
}

// CancelOrder sends a cancel frame for the order id. Best effort: any
// failure is returned but the caller treats it as advisory.
func (t *UDSTransport) CancelOrder(ctx context.Context, orderID uint64) error {
	conn, err := t.client.DialContext(ctx)
	if err != nil {
		return werrors.Wrap(exception.ErrOrderConnection, "dial boundary")
	}
	defer conn.Close()

	frame := codec.EncodeSubmission(nil, codec.Submission{
		OrderID: orderID,
		Flags:   codec.SubmissionFlagCancel,
	})
	if err := writeFrame(conn, frame); err != nil {
		return werrors.Wrap(exception.ErrOrderConnection, "write cancel")
	}
	return nil
}

// UDSServer is the socket side of the boundary: it decodes submission
// frames, applies an ack policy and writes acknowledgements back. Used by
// tests and the single-binary demo in place of a real venue gateway.
type UDSServer struct {
	server *uds.Server
	policy func(codec.Submission) schema.OrderAck
}

// NewUDSServer creates a server on path using the given ack policy. A nil
// policy accepts every order.
func NewUDSServer(path string, policy func(codec.Submission) schema.OrderAck) (*UDSServer, error) {
	server, err := uds.NewServer(path)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		policy = func(sub codec.Submission) schema.OrderAck {
			return schema.OrderAck{OrderID: sub.OrderID, Accepted: true}
		}
	}
	return &UDSServer{server: server, policy: policy}, nil
}

// Listen binds the socket.
func (s *UDSServer) Listen() error {
	return s.server.Listen()
}

// Run serves connections until the context is done.
func (s *UDSServer) Run(ctx context.Context) error {
	return s.server.Serve(ctx, s.handle)
}

// Close stops the listener.
func (s *UDSServer) Close() error {
	return s.server.Close()
}

func (s *UDSServer) handle(conn net.Conn) {
	defer conn.Close()

	for {
		frame, err := readFrame(conn)
		if err != nil {
			return
		}
		sub, ok := codec.DecodeSubmission(frame)
		if !ok {
			return
		}
		if sub.Flags&codec.SubmissionFlagCancel != 0 {
			continue
		}
		ack := s.policy(sub)
		if err := writeFrame(conn, codec.EncodeOrderAck(nil, ack)); err != nil {
			return
		}
	}
}

func writeFrame(conn net.Conn, frame []byte) error {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(frame)))
	if _, err := conn.Write(header[:]); err != nil {
		return err
	}
	_, err := conn.Write(frame)
	return err
}

func readFrame(conn net.Conn) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return nil, exception.ErrInvalidArgument
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(conn, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

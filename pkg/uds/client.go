package uds

import (
	"context"
	"net"

	"main/pkg/exception"
)

const unixNetwork = "unix"

// Client dials Unix domain sockets using a precomputed address.
type Client struct {
	addr net.UnixAddr
}

// NewClient creates a client for the provided socket path.
func NewClient(path string) (*Client, error) {
	if path == "" {
		return nil, exception.ErrEmptyPathUDS
	}
	return &Client{addr: net.UnixAddr{Name: path, Net: unixNetwork}}, nil
}

// Path returns the configured socket path.
func (c *Client) Path() string {
	if c == nil {
		return ""
	}
	return c.addr.Name
}

// Dial opens a Unix domain socket connection.
func (c *Client) Dial() (*net.UnixConn, error) {
	if c == nil {
		return nil, exception.ErrNilClientUDS
	}
	if c.addr.Name == "" {
		return nil, exception.ErrEmptyPathUDS
	}
	return net.DialUnix(unixNetwork, nil, &c.addr)
}

// DialContext opens a connection honoring the context deadline. The
// context deadline is also applied to the connection so one ctx bounds
// dial and I/O together.
func (c *Client) DialContext(ctx context.Context) (net.Conn, error) {
	if c == nil {
		return nil, exception.ErrNilClientUDS
	}
	if c.addr.Name == "" {
		return nil, exception.ErrEmptyPathUDS
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, unixNetwork, c.addr.Name)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, nil
}

package main

import (
	"context"
	"net"
	"sync"
	"time"
)

// deadlineConn fails any Read or Write that sees no progress for timeout
// while at least one operation is in flight. Outside of operations the
// connection may stay idle indefinitely, which an SSH transport needs since
// its reader goroutine is always blocked in Read.
type deadlineConn struct {
	net.Conn
	timeout time.Duration

	mu     sync.Mutex
	active int
}

func newDeadlineConn(conn net.Conn, timeout time.Duration) *deadlineConn {
	return &deadlineConn{Conn: conn, timeout: timeout}
}

// begin starts an operation and arms the deadline. The returned func ends it.
func (c *deadlineConn) begin() func() {
	c.mu.Lock()
	c.active++
	if c.timeout > 0 {
		_ = c.Conn.SetDeadline(time.Now().Add(c.timeout))
	}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.active--
		if c.active == 0 {
			_ = c.Conn.SetDeadline(time.Time{})
		}
	}
}

func (c *deadlineConn) refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 || c.timeout <= 0 {
		return nil
	}
	return c.Conn.SetDeadline(time.Now().Add(c.timeout))
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if err := c.refresh(); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if err := c.refresh(); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// dialWithDeadline returns a dial func whose connections are always armed,
// for protocols that only read when they expect an answer (FTP control and
// data connections).
func dialWithDeadline(ctx context.Context, timeout time.Duration) func(network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	return func(network, address string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		dc := newDeadlineConn(conn, timeout)
		dc.begin()
		return dc, nil
	}
}

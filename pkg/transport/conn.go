package transport

import (
	"net"
	"time"

	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

// deadlineConn arms a fresh deadline before every read and write, so the
// timeout bounds each blocking call rather than the whole exchange.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, errors.NewIOError("setting read deadline", err)
	}
	n, err := c.Conn.Read(p)
	if err != nil && isTimeout(err) {
		return n, errors.NewTimeoutError("read", c.timeout, err)
	}
	return n, err
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, errors.NewIOError("setting write deadline", err)
	}
	n, err := c.Conn.Write(p)
	if err != nil && isTimeout(err) {
		return n, errors.NewTimeoutError("write", c.timeout, err)
	}
	return n, err
}

// Package conn frames successive messages on one transport. A
// connection is bound to the direction it reads: the server side reads
// requests and writes responses, the client side the mirror image.
// Exactly one goroutine owns a connection at a time.
package conn

import (
	"io"

	"go.uber.org/multierr"

	"httpwire/internal/netx"
	"httpwire/internal/request"
	"httpwire/internal/response"
)

// core owns the buffered reader over the inbound half and the raw
// outbound half.
type core struct {
	reader *netx.StreamReader
	src    io.Reader
	writer io.Writer
}

func newCore(r io.Reader, w io.Writer) core {
	return core{reader: netx.NewStreamReader(r), src: r, writer: w}
}

// close releases whichever halves are closable, combining the errors.
// When both halves are the same value (a net.Conn) it is closed once.
func (c *core) close() error {
	var err error
	if cl, ok := c.writer.(io.Closer); ok {
		err = multierr.Append(err, cl.Close())
	}
	if any(c.src) != any(c.writer) {
		if cl, ok := c.src.(io.Closer); ok {
			err = multierr.Append(err, cl.Close())
		}
	}
	return err
}

// ServerConn reads Requests and writes Responses.
type ServerConn struct {
	core
}

// NewServerConn binds the two halves of an accepted transport. Both
// halves of a net.Conn may be the same value.
func NewServerConn(r io.Reader, w io.Writer) *ServerConn {
	return &ServerConn{core: newCore(r, w)}
}

func (c *ServerConn) ReadRequest() (*request.Request, error) {
	return request.ReadFrom(c.reader)
}

func (c *ServerConn) WriteResponse(resp *response.Response) error {
	return resp.WriteTo(c.writer)
}

func (c *ServerConn) Close() error { return c.close() }

// ClientConn reads Responses and writes Requests.
type ClientConn struct {
	core
}

func NewClientConn(r io.Reader, w io.Writer) *ClientConn {
	return &ClientConn{core: newCore(r, w)}
}

func (c *ClientConn) ReadResponse() (*response.Response, error) {
	return response.ReadFrom(c.reader)
}

func (c *ClientConn) WriteRequest(req *request.Request) error {
	return req.WriteTo(c.writer)
}

func (c *ClientConn) Close() error { return c.close() }

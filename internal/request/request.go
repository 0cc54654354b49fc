package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/valyala/bytebufferpool"

	"httpwire/internal/body"
	"httpwire/internal/headers"
	"httpwire/internal/httpver"
	"httpwire/internal/netx"
)

// Method is the closed set of request methods this module recognizes.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

var methods = map[string]Method{
	"GET": MethodGet, "HEAD": MethodHead, "POST": MethodPost,
	"PUT": MethodPut, "DELETE": MethodDelete, "CONNECT": MethodConnect,
	"OPTIONS": MethodOptions, "TRACE": MethodTrace,
}

var (
	ErrMalformedRequestLine = errors.New("malformed request-line")
	ErrUnsupportedMethod    = errors.New("unsupported http method")
)

// RequestLine represents the three components of a request line:
//
//	<method> SP <request-target> SP <HTTP-version>
type RequestLine struct {
	Method  Method
	Target  string
	Version httpver.Version
}

// ParseRequestLine parses one start line, already stripped of its
// CRLF. Tokens are separated by single spaces, so a doubled space
// produces an empty token and fails.
func ParseRequestLine(line []byte) (RequestLine, error) {
	parts := bytes.Split(line, []byte{' '})
	if len(parts) != 3 {
		return RequestLine{}, ErrMalformedRequestLine
	}

	m, ok := methods[string(parts[0])]
	if !ok {
		return RequestLine{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, parts[0])
	}

	if len(parts[1]) == 0 {
		return RequestLine{}, fmt.Errorf("%w: empty request target", ErrMalformedRequestLine)
	}

	v, err := httpver.ParseToken(parts[2])
	if err != nil {
		return RequestLine{}, err
	}

	return RequestLine{Method: m, Target: string(parts[1]), Version: v}, nil
}

func (rl RequestLine) writeTo(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s HTTP/%s\r\n", rl.Method, rl.Target, rl.Version)
	return err
}

// Request is a fully buffered inbound or outbound request.
type Request struct {
	RequestLine RequestLine
	Headers     headers.Headers
	Body        []byte
}

// New builds an empty request with the default version, ready for the
// client send path.
func New(method Method, target string) *Request {
	return &Request{
		RequestLine: RequestLine{Method: method, Target: target, Version: httpver.Default()},
		Headers:     headers.NewHeaders(),
		Body:        []byte{},
	}
}

// ReadFrom parses one request off the reader: start line, field lines
// until the blank line, then the body per its framing. After a chunked
// body the final CRLF is consumed so the stream sits at a message
// boundary. A source that runs dry after the start line yields
// io.ErrUnexpectedEOF.
func ReadFrom(r *netx.StreamReader) (*Request, error) {
	line, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	rl, err := ParseRequestLine(line)
	if err != nil {
		return nil, err
	}

	h := headers.NewHeaders()
	for {
		line, err := r.ReadLine()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			break
		}
		if err := h.ParseLine(line); err != nil {
			return nil, err
		}
	}

	chunked := h.Has("Transfer-Encoding")
	b, err := body.Parse(h, r)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	if chunked {
		if _, err := r.ReadLine(); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	return &Request{RequestLine: rl, Headers: h, Body: b}, nil
}

// WriteTo serializes the request and flushes it with a single write.
// A non-empty body forces Content-Length to the body's byte length.
func (r *Request) WriteTo(w io.Writer) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := r.RequestLine.writeTo(buf); err != nil {
		return err
	}
	if len(r.Body) > 0 {
		r.Headers.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	if len(r.Headers) == 0 {
		buf.WriteString("\r\n")
	} else if err := r.Headers.WriteTo(buf); err != nil {
		return err
	}
	if len(r.Body) > 0 {
		buf.Write(r.Body)
	}

	_, err := w.Write(buf.B)
	return err
}

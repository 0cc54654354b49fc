package response

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/valyala/bytebufferpool"

	"httpwire/internal/body"
	"httpwire/internal/headers"
	"httpwire/internal/httpver"
	"httpwire/internal/netx"
)

type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusMethodNotAllowed    StatusCode = 405
	StatusInternalServerError StatusCode = 500
)

// Canonical reason phrases, written on serialization regardless of
// what a parsed status line carried.
var reasons = map[StatusCode]string{
	StatusOK:                  "Ok",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
}

var (
	ErrMalformedStatusLine = errors.New("malformed status-line")
	ErrInvalidStatusCode   = errors.New("invalid status code")
)

func (c StatusCode) Reason() string {
	if r, ok := reasons[c]; ok {
		return r
	}
	return "Unknown"
}

func parseStatusCode(b []byte) (StatusCode, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatusCode, b)
	}
	c := StatusCode(n)
	if _, ok := reasons[c]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStatusCode, n)
	}
	return c, nil
}

// StatusLine is the version and code of a response start line. The
// reason phrase is derived from the code on write and ignored on
// parse.
type StatusLine struct {
	Version httpver.Version
	Code    StatusCode
}

// ParseStatusLine accepts either the two-part or three-part form:
//
//	HTTP-version SP status-code [ SP reason-phrase ]
func ParseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{' '}, 3)
	if len(parts) < 2 {
		return StatusLine{}, ErrMalformedStatusLine
	}

	v, err := httpver.ParseToken(parts[0])
	if err != nil {
		return StatusLine{}, err
	}
	code, err := parseStatusCode(parts[1])
	if err != nil {
		return StatusLine{}, err
	}

	return StatusLine{Version: v, Code: code}, nil
}

func (sl StatusLine) writeTo(w io.Writer) error {
	_, err := fmt.Fprintf(w, "HTTP/%s %d %s\r\n", sl.Version, sl.Code, sl.Code.Reason())
	return err
}

// Response is a fully buffered inbound or outbound response.
type Response struct {
	StatusLine StatusLine
	Headers    headers.Headers
	Body       []byte
}

func New(code StatusCode) *Response {
	return &Response{
		StatusLine: StatusLine{Version: httpver.Default(), Code: code},
		Headers:    headers.NewHeaders(),
		Body:       []byte{},
	}
}

// InternalError is the canonical failure response the server emits
// when parsing or the handler goes wrong: bare 500, no headers, no
// body.
func InternalError() *Response {
	return New(StatusInternalServerError)
}

// FromFile builds a 200 response carrying the file's contents.
func FromFile(filename, contentType string) (*Response, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	resp := New(StatusOK)
	resp.Headers.Add("Content-Length", strconv.Itoa(len(content)))
	resp.Headers.Add("Content-Type", contentType)
	resp.Body = content
	return resp, nil
}

// ReadFrom parses one response off the reader, mirroring the request
// path: status line, field lines, body per framing, and the final
// CRLF after a chunked body. A source that runs dry after the status
// line yields io.ErrUnexpectedEOF.
func ReadFrom(r *netx.StreamReader) (*Response, error) {
	line, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	sl, err := ParseStatusLine(line)
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

	return &Response{StatusLine: sl, Headers: h, Body: b}, nil
}

// WriteTo serializes the response and flushes it with a single write.
// A non-empty body forces Content-Length to the body's byte length.
func (r *Response) WriteTo(w io.Writer) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := r.StatusLine.writeTo(buf); err != nil {
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

// ChunkedWriter encodes writes as chunked transfer coding. Each Write
// becomes one chunk; Close emits the terminating zero chunk. The
// headers sent ahead of it must carry Transfer-Encoding: chunked and
// no Content-Length.
type ChunkedWriter struct {
	w io.Writer
}

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{w: w}
}

func (cw *ChunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(cw.w, "%x\r\n", len(p)); err != nil {
		return 0, err
	}
	n, err := cw.w.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := io.WriteString(cw.w, "\r\n"); err != nil {
		return n, err
	}
	return n, nil
}

func (cw *ChunkedWriter) Close() error {
	_, err := io.WriteString(cw.w, "0\r\n\r\n")
	return err
}

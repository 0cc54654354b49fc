// Package body resolves message framing from the parsed headers and
// buffers the payload off the stream.
package body

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"httpwire/internal/headers"
	"httpwire/internal/netx"
)

var (
	ErrInvalidHeaderFields  = errors.New("invalid header fields")
	ErrInvalidContentLength = errors.New("invalid content length")
	ErrMalformedChunkSize   = errors.New("malformed chunked size")
	ErrMalformedChunkBody   = errors.New("malformed chunked body")
)

// Framing is the discipline resolved from the headers.
type Framing struct {
	Chunked bool
	Length  int // meaningful when !Chunked
}

// Resolve decides the framing per RFC 9112 message-body-length rules,
// restricted to the subset this module speaks.
//
// Transfer-Encoding together with Content-Length is rejected outright,
// as is any transfer coding other than the literal "chunked".
func Resolve(h headers.Headers) (Framing, error) {
	hasTE := h.Has("Transfer-Encoding")
	hasCL := h.Has("Content-Length")

	if hasTE && hasCL {
		return Framing{}, ErrInvalidHeaderFields
	}

	if hasTE {
		if h.Get("Transfer-Encoding") != "chunked" {
			return Framing{}, ErrInvalidHeaderFields
		}
		return Framing{Chunked: true}, nil
	}

	if hasCL {
		n, err := parseContentLength(h.Get("Content-Length"))
		if err != nil {
			return Framing{}, err
		}
		return Framing{Length: n}, nil
	}

	return Framing{Length: 0}, nil
}

// parseContentLength accepts a plain non-negative integer, or a
// comma-separated list whose trimmed members are all identical and
// parse to one.
func parseContentLength(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return n, nil
	}

	parts := strings.Split(v, ",")
	first := strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) != first {
			return 0, fmt.Errorf("%w: mismatched list %q", ErrInvalidContentLength, v)
		}
	}
	n, err := strconv.Atoi(first)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, v)
	}
	return n, nil
}

// Parse buffers the whole body. On the chunked path it normalizes the
// headers afterwards: Content-Length is set to the decoded length and
// Transfer-Encoding is removed. The zero-size chunk line ends the
// decoder; the final CRLF after it belongs to the caller.
func Parse(h headers.Headers, r *netx.StreamReader) ([]byte, error) {
	framing, err := Resolve(h)
	if err != nil {
		return nil, err
	}

	if !framing.Chunked {
		if framing.Length == 0 {
			return []byte{}, nil
		}
		return r.ReadN(framing.Length)
	}

	body, err := parseChunked(r)
	if err != nil {
		return nil, err
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Del("Transfer-Encoding")
	return body, nil
}

// chunked sub-states
type chunkState int

const (
	chunkSize chunkState = iota
	chunkData
)

func parseChunked(r *netx.StreamReader) ([]byte, error) {
	state := chunkSize
	size := 0
	body := []byte{}
	for {
		switch state {
		case chunkSize:
			line, err := r.ReadLine()
			if err != nil {
				return nil, err
			}
			n, err := strconv.ParseUint(string(line), 16, 63)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrMalformedChunkSize, line)
			}
			if n == 0 {
				return body, nil
			}
			size = int(n)
			state = chunkData

		case chunkData:
			// The chunk body and its CRLF delimiter in one read; the
			// payload may itself contain CR/LF bytes, so the length is
			// what delimits, not the terminator.
			chunk, err := r.ReadN(size + 2)
			if err != nil {
				return nil, err
			}
			if chunk[size] != '\r' || chunk[size+1] != '\n' {
				return nil, ErrMalformedChunkBody
			}
			body = append(body, chunk[:size]...)
			state = chunkSize
		}
	}
}

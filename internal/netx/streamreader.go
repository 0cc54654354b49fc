package netx

import (
	"io"
)

// Size of the scratch buffer. Lines longer than this still parse; the
// buffer is refilled and scanning continues.
const bufSize = 2 * 1024

// StreamReader exposes the two read primitives the message parsers
// need: a CRLF-terminated line and an exact byte count. Bytes read
// from the source but not yet consumed are kept in a fixed scratch
// buffer across calls, so arbitrary fragmentation of the underlying
// stream is invisible to callers.
type StreamReader struct {
	reader io.Reader
	buf    [bufSize]byte
	n      int // unread bytes at the front of buf
	err    error
}

func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: r}
}

// ReadLine returns the next CRLF-terminated line without the
// terminator. A bare CR not followed by LF stays in the line. Returns
// io.EOF if the source is exhausted before any byte of the line was
// seen, io.ErrUnexpectedEOF if it runs dry mid-line.
func (s *StreamReader) ReadLine() ([]byte, error) {
	out := make([]byte, 0, 64)
	prevCR := false
	for {
		for i := 0; i < s.n; i++ {
			b := s.buf[i]
			if prevCR && b == '\n' {
				out = out[:len(out)-1] // drop the CR
				copy(s.buf[:], s.buf[i+1:s.n])
				s.n -= i + 1
				return out, nil
			}
			out = append(out, b)
			prevCR = b == '\r'
		}
		// prevCR carries across the refill: the CR may be the last
		// byte of one read and the LF the first byte of the next.
		s.n = 0
		if err := s.fill(); err != nil {
			if err == io.EOF {
				if len(out) == 0 {
					return nil, io.EOF
				}
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

// ReadN returns exactly k bytes, draining the scratch buffer before
// touching the source. A short source yields io.ErrUnexpectedEOF.
func (s *StreamReader) ReadN(k int) ([]byte, error) {
	out := make([]byte, 0, k)
	if s.n > 0 {
		take := min(s.n, k)
		out = append(out, s.buf[:take]...)
		copy(s.buf[:], s.buf[take:s.n])
		s.n -= take
	}
	for len(out) < k {
		if err := s.fill(); err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		take := min(s.n, k-len(out))
		out = append(out, s.buf[:take]...)
		copy(s.buf[:], s.buf[take:s.n])
		s.n -= take
	}
	return out, nil
}

// fill issues one read into the empty scratch buffer. Bytes delivered
// alongside an error are kept; the error is replayed on the next fill
// with an empty result, per the io.Reader contract.
func (s *StreamReader) fill() error {
	if s.err != nil && s.n == 0 {
		err := s.err
		s.err = nil
		return err
	}
	n, err := s.reader.Read(s.buf[:])
	s.n = n
	if n > 0 {
		if err != nil {
			s.err = err
		}
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

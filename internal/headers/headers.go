package headers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Headers maps lowercase field names to their (possibly comma-folded)
// values.
type Headers map[string]string

var ErrMalformedField = errors.New("malformed field line")

func NewHeaders() Headers { return Headers{} }

// Get is case-insensitive.
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

func (h Headers) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// Add folds onto an existing value with a comma; absent names are
// inserted.
func (h Headers) Add(name, value string) {
	name = strings.ToLower(name)
	if old, ok := h[name]; ok {
		h[name] = old + "," + value
	} else {
		h[name] = value
	}
}

// Set replaces any prior value.
func (h Headers) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

func (h Headers) Del(name string) {
	delete(h, strings.ToLower(name))
}

// ContainsToken treats the stored value as a comma-separated list and
// tests case-insensitive membership.
func (h Headers) ContainsToken(name, token string) bool {
	v := h.Get(name)
	if v == "" {
		return false
	}
	for t := range strings.SplitSeq(v, ",") {
		if strings.EqualFold(strings.TrimSpace(t), token) {
			return true
		}
	}
	return false
}

// ParseLine consumes one field line, already stripped of its CRLF.
// The name must be a non-empty token (so a space before the colon
// fails), the value may carry HTAB/SP/VCHAR/obs-text bytes and is
// trimmed of surrounding whitespace.
func (h Headers) ParseLine(line []byte) error {
	colon := bytes.IndexByte(line, ':')
	if colon == -1 {
		return ErrMalformedField
	}

	nameRaw := line[:colon]
	if !isToken(nameRaw) {
		return fmt.Errorf("%w: bad field name %q", ErrMalformedField, nameRaw)
	}

	value := bytes.Trim(line[colon+1:], " \t")
	if !isFieldValue(value) {
		return fmt.Errorf("%w: bad field value %q", ErrMalformedField, value)
	}

	h.Add(string(nameRaw), string(value))
	return nil
}

// WriteTo emits "name: value\r\n" per field plus the terminating blank
// line, sorted by name so output is stable. An empty map writes
// nothing; the caller owns the terminator in that case.
func (h Headers) WriteTo(w io.Writer) error {
	if len(h) == 0 {
		return nil
	}
	keys := lo.Keys(h)
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", k, h[k]); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

// Clone is a shallow copy; values are immutable strings.
func (h Headers) Clone() Headers {
	c := make(Headers, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

var allowed [256]bool

func init() {
	for c := byte('0'); c <= '9'; c++ {
		allowed[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		allowed[c] = true
	}
	for c := byte('a'); c <= 'z'; c++ {
		allowed[c] = true
	}
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		allowed[c] = true
	}
}

// isToken reports whether b is a non-empty RFC 9110 token.
func isToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c > 127 || !allowed[c] {
			return false
		}
	}
	return true
}

// isFieldValue allows HTAB, SP, VCHAR and obs-text.
func isFieldValue(b []byte) bool {
	for _, c := range b {
		switch {
		case c == 0x09 || c == 0x20:
		case c >= 0x21 && c <= 0x7E:
		case c >= 0x80:
		default:
			return false
		}
	}
	return true
}

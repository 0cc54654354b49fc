package headers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersParseLine(t *testing.T) {
	// Test: Valid single field
	h := NewHeaders()
	err := h.ParseLine([]byte("Host: localhost:42069"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:42069", h.Get("host"))

	// Test: Space before the colon makes the name a non-token
	h = NewHeaders()
	err = h.ParseLine([]byte("Host : localhost:42069"))
	require.ErrorIs(t, err, ErrMalformedField)

	// Test: Missing colon
	err = NewHeaders().ParseLine([]byte("no colon here"))
	require.ErrorIs(t, err, ErrMalformedField)

	// Test: Empty name
	err = NewHeaders().ParseLine([]byte(": value"))
	require.ErrorIs(t, err, ErrMalformedField)

	// Test: Control byte in the value
	err = NewHeaders().ParseLine([]byte("X-K: bad\x07value"))
	require.ErrorIs(t, err, ErrMalformedField)

	// Test: obs-text bytes are allowed in values
	err = NewHeaders().ParseLine([]byte("X-K: caf\xc3\xa9"))
	require.NoError(t, err)

	// Test: value whitespace is trimmed, inner colons kept
	h = NewHeaders()
	require.NoError(t, h.ParseLine([]byte("Referer:   http://x/y:z   ")))
	assert.Equal(t, "http://x/y:z", h.Get("referer"))

	// Test: repeating fields fold with a comma
	h = NewHeaders()
	require.NoError(t, h.ParseLine([]byte("X-Person: some1   ")))
	require.NoError(t, h.ParseLine([]byte("X-Person: some2   ")))
	require.NoError(t, h.ParseLine([]byte("X-Person: some3   ")))
	assert.Equal(t, "some1,some2,some3", h.Get("x-person"))
}

func TestHeadersAccess(t *testing.T) {
	h := NewHeaders()
	h.Set("Content-Type", "text/plain")

	// Case-insensitive everywhere
	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.Equal(t, "text/plain", h.Get("CONTENT-TYPE"))
	assert.Equal(t, "text/plain", h.Get("Content-Type"))
	assert.True(t, h.Has("CONTENT-type"))

	// Set replaces, Add folds
	h.Set("Content-Type", "text/html")
	assert.Equal(t, "text/html", h.Get("content-type"))
	h.Add("Vary", "accept")
	h.Add("VARY", "encoding")
	assert.Equal(t, "accept,encoding", h.Get("vary"))

	h.Del("vary")
	assert.False(t, h.Has("Vary"))
	assert.Empty(t, h.Get("vary"))
}

func TestHeadersContainsToken(t *testing.T) {
	h := NewHeaders()
	h.Set("Connection", "keep-alive, Upgrade")

	assert.True(t, h.ContainsToken("connection", "keep-alive"))
	assert.True(t, h.ContainsToken("Connection", "upgrade"))
	assert.False(t, h.ContainsToken("Connection", "close"))
	assert.False(t, h.ContainsToken("Missing", "close"))

	// Token match, not substring match
	h.Set("Connection", "keep-alive-ish")
	assert.False(t, h.ContainsToken("Connection", "keep-alive"))
}

func TestHeadersWriteTo(t *testing.T) {
	// Empty map writes nothing at all
	var sb strings.Builder
	require.NoError(t, NewHeaders().WriteTo(&sb))
	assert.Empty(t, sb.String())

	// Sorted by name, terminated by a blank line
	h := NewHeaders()
	h.Set("b", "2")
	h.Set("a", "1")
	h.Set("c", "3")
	sb.Reset()
	require.NoError(t, h.WriteTo(&sb))
	assert.Equal(t, "a: 1\r\nb: 2\r\nc: 3\r\n\r\n", sb.String())
}

func TestHeadersRoundTrip(t *testing.T) {
	h := NewHeaders()
	h.Set("Host", "localhost:42069")
	h.Set("User-Agent", "curl/7.81.0")
	h.Set("Accept", "*/*")
	h.Set("X-Empty", "")

	var sb strings.Builder
	require.NoError(t, h.WriteTo(&sb))

	parsed := NewHeaders()
	lines := strings.Split(strings.TrimSuffix(sb.String(), "\r\n\r\n"), "\r\n")
	for _, line := range lines {
		require.NoError(t, parsed.ParseLine([]byte(line)))
	}
	assert.Equal(t, h, parsed)
}

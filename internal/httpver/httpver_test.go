package httpver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse([]byte("1.1"))
	require.NoError(t, err)
	assert.Equal(t, Version{1, 1}, v)

	v, err = Parse([]byte("1.0"))
	require.NoError(t, err)
	assert.Equal(t, Version{1, 0}, v)

	for _, bad := range []string{"1.2", "1", "", "one.one"} {
		_, err := Parse([]byte(bad))
		assert.ErrorIs(t, err, ErrInvalidHTTPVersion, bad)
	}
}

func TestParseToken(t *testing.T) {
	v, err := ParseToken([]byte("HTTP/1.1"))
	require.NoError(t, err)
	assert.Equal(t, Version{1, 1}, v)

	_, err = ParseToken([]byte("HTP/1.1"))
	assert.ErrorIs(t, err, ErrInvalidHTTPVersion)
	_, err = ParseToken([]byte("1.1"))
	assert.ErrorIs(t, err, ErrInvalidHTTPVersion)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Version{1, 1}.Compare(Version{1, 1}))
	assert.Equal(t, -1, Version{1, 0}.Compare(Version{1, 1}))
	assert.Equal(t, 1, Version{2, 0}.Compare(Version{1, 1}))
	assert.Equal(t, -1, Version{1, 1}.Compare(Version{3, 0}))

	assert.Equal(t, "1.1", Default().String())
}

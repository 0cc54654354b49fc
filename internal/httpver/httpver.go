// Package httpver holds the HTTP-version pair shared by the request
// and response start lines.
package httpver

import (
	"errors"
	"fmt"
)

var ErrInvalidHTTPVersion = errors.New("invalid http version")

type Version struct {
	Major int
	Minor int
}

// Default is the version written when a message is built without one.
func Default() Version { return Version{1, 1} }

// Parse accepts the closed set of version literals, without the
// "HTTP/" prefix.
func Parse(b []byte) (Version, error) {
	switch string(b) {
	case "1.0":
		return Version{1, 0}, nil
	case "1.1":
		return Version{1, 1}, nil
	case "2.0":
		return Version{2, 0}, nil
	case "3.0":
		return Version{3, 0}, nil
	}
	return Version{}, ErrInvalidHTTPVersion
}

// ParseToken parses a full "HTTP/<major>.<minor>" start-line token.
func ParseToken(b []byte) (Version, error) {
	const prefix = "HTTP/"
	if len(b) < len(prefix) || string(b[:len(prefix)]) != prefix {
		return Version{}, ErrInvalidHTTPVersion
	}
	return Parse(b[len(prefix):])
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare orders versions lexicographically on (major, minor).
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		if v.Major < o.Major {
			return -1
		}
		return 1
	}
	if v.Minor != o.Minor {
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	return 0
}

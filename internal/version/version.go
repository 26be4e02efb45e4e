// Package version implements the version and dependency algebra: parsing,
// comparison, constraint satisfaction, and enumeration of unmet
// dependencies across an installed set. It does no I/O.
package version

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is a finite ordered sequence of non-negative integers. Equality
// and ordering are lexicographic over the sequence; a longer sequence is
// greater than its prefix.
type Version []int

// Parse splits s on '.' and requires every token to parse as a
// non-negative integer. Empty tokens (leading, trailing, or doubled dots)
// are rejected.
func Parse(s string) (Version, error) {
	if s == "" {
		return nil, errors.Errorf("invalid version %q: empty string", s)
	}

	parts := strings.Split(s, ".")
	v := make(Version, len(parts))
	for i, p := range parts {
		if p == "" {
			return nil, errors.Errorf("invalid version %q: empty segment", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid version %q: segment %q", s, p)
		}
		if n < 0 {
			return nil, errors.Errorf("invalid version %q: negative segment %q", s, p)
		}
		v[i] = n
	}
	return v, nil
}

// String renders the version in its canonical dotted form.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Compare returns -1, 0, or 1 as v1 is less than, equal to, or greater than
// v2. A longer sequence is greater than its prefix.
func Compare(v1, v2 Version) int {
	for i := 0; i < len(v1) && i < len(v2); i++ {
		switch {
		case v1[i] < v2[i]:
			return -1
		case v1[i] > v2[i]:
			return 1
		}
	}
	switch {
	case len(v1) < len(v2):
		return -1
	case len(v1) > len(v2):
		return 1
	default:
		return 0
	}
}

// Package version parses and orders Neo4j product versions of the form
// MAJOR.MINOR.PATCH[-label].
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformed is matched by every MalformedVersionError.
var ErrMalformed = errors.New("malformed version")

// MalformedVersionError reports a string without a MAJOR.MINOR.PATCH prefix.
type MalformedVersionError struct {
	Input string
}

func (e *MalformedVersionError) Error() string {
	return fmt.Sprintf("malformed version %q: expected MAJOR.MINOR.PATCH[-label]", e.Input)
}

func (e *MalformedVersionError) Unwrap() error {
	return ErrMalformed
}

// Version is an immutable product version. The label never takes part in
// ordering: 4.4.0-beta04 and 4.4.0 are the same release point.
type Version struct {
	major int
	minor int
	patch int
	label string
}

// The label covers alpha07, beta04, rc1/Rc1/RC1 as well as vendor suffixes
// such as drop01 and drop01.1. Anything after the match is ignored.
var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(-[A-Za-z]+\d*(?:\.\d+)*)?`)

// Parse reads a version from the start of raw.
func Parse(raw string) (Version, error) {
	m := versionRe.FindStringSubmatch(raw)
	if m == nil {
		return Version{}, &MalformedVersionError{Input: raw}
	}

	var nums [3]int
	for i := range nums {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, &MalformedVersionError{Input: raw}
		}
		nums[i] = n
	}

	return Version{major: nums[0], minor: nums[1], patch: nums[2], label: m[4]}, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// New builds a version from its parts. label, when set, should carry its
// leading hyphen.
func New(major, minor, patch int, label string) (Version, error) {
	if major < 0 || minor < 0 || patch < 0 {
		return Version{}, &MalformedVersionError{Input: fmt.Sprintf("%d.%d.%d%s", major, minor, patch, label)}
	}
	return Version{major: major, minor: minor, patch: patch, label: label}, nil
}

func (v Version) Major() int { return v.major }
func (v Version) Minor() int { return v.minor }
func (v Version) Patch() int { return v.patch }
func (v Version) Label() string { return v.label }

// String returns the canonical form MAJOR.MINOR.PATCH followed by the label.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s", v.major, v.minor, v.patch, v.label)
}

// Compare orders a and b by (major, minor, patch) and returns -1, 0 or 1.
func Compare(a, b Version) int {
	switch {
	case a.major != b.major:
		return cmpInt(a.major, b.major)
	case a.minor != b.minor:
		return cmpInt(a.minor, b.minor)
	default:
		return cmpInt(a.patch, b.patch)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// IsOlderThan reports whether v is a strictly earlier release than other.
func (v Version) IsOlderThan(other Version) bool {
	return Compare(v, other) < 0
}

// IsNewerThan reports whether v is a strictly later release than other.
func (v Version) IsNewerThan(other Version) bool {
	return Compare(v, other) > 0
}

// IsAtLeastVersion reports whether v is the same release as other or later.
func (v Version) IsAtLeastVersion(other Version) bool {
	return !v.IsOlderThan(other)
}

// SameRelease reports whether both versions share the numeric triple.
func (v Version) SameRelease(other Version) bool {
	return Compare(v, other) == 0
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

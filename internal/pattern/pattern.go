// Package pattern parses version patterns used by plugin catalogs and
// bundling metadata, and matches them against product versions.
//
// A pattern is either an exact version (5.0.0) or a wildcard over a minor
// release line, spelled 4.4.x or 4.4.*. Both wildcard spellings are kept as
// distinct kinds so a pattern always formats back to what was written, but
// they match identically.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformed is matched by every MalformedPatternError.
var ErrMalformed = errors.New("malformed version pattern")

// MalformedPatternError reports a string that is neither MAJOR.MINOR.PATCH
// nor MAJOR.MINOR.x / MAJOR.MINOR.*.
type MalformedPatternError struct {
	Input string
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("malformed version pattern %q: expected MAJOR.MINOR.PATCH, MAJOR.MINOR.x or MAJOR.MINOR.*", e.Input)
}

func (e *MalformedPatternError) Unwrap() error {
	return ErrMalformed
}

// Kind discriminates the pattern forms.
type Kind int

const (
	Exact Kind = iota
	MinorWildcardX
	MinorWildcardStar
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case MinorWildcardX:
		return "minor-wildcard-x"
	case MinorWildcardStar:
		return "minor-wildcard-star"
	default:
		return "unknown"
	}
}

// IsWildcard reports whether k matches any patch of a minor line.
func (k Kind) IsWildcard() bool {
	return k == MinorWildcardX || k == MinorWildcardStar
}

// Pattern is an immutable parsed version pattern. patch is only meaningful
// for Exact patterns.
type Pattern struct {
	kind  Kind
	major int
	minor int
	patch int
}

var patternRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+|x|\*)$`)

// Parse reads a whole pattern string.
func Parse(raw string) (Pattern, error) {
	m := patternRe.FindStringSubmatch(raw)
	if m == nil {
		return Pattern{}, &MalformedPatternError{Input: raw}
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Pattern{}, &MalformedPatternError{Input: raw}
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Pattern{}, &MalformedPatternError{Input: raw}
	}

	p := Pattern{major: major, minor: minor}
	switch m[3] {
	case "x":
		p.kind = MinorWildcardX
	case "*":
		p.kind = MinorWildcardStar
	default:
		patch, err := strconv.Atoi(m[3])
		if err != nil {
			return Pattern{}, &MalformedPatternError{Input: raw}
		}
		p.kind = Exact
		p.patch = patch
	}
	return p, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(raw string) Pattern {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) Kind() Kind { return p.kind }
func (p Pattern) Major() int { return p.major }
func (p Pattern) Minor() int { return p.minor }

// Patch returns the patch component and false for wildcard patterns.
func (p Pattern) Patch() (int, bool) {
	if p.kind != Exact {
		return 0, false
	}
	return p.patch, true
}

// String returns the pattern in the form it was written.
func (p Pattern) String() string {
	switch p.kind {
	case MinorWildcardX:
		return fmt.Sprintf("%d.%d.x", p.major, p.minor)
	case MinorWildcardStar:
		return fmt.Sprintf("%d.%d.*", p.major, p.minor)
	default:
		return fmt.Sprintf("%d.%d.%d", p.major, p.minor, p.patch)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

package pattern

import "github.com/frederic-klein/pluginver/internal/version"

// Matches reports whether v satisfies p. Labels are never consulted.
//
// Plugins are bundled per minor release line, so wildcards only ever span
// the patch component; major and minor always have to agree.
func Matches(v version.Version, p Pattern) bool {
	if v.Major() != p.major || v.Minor() != p.minor {
		return false
	}
	if p.kind.IsWildcard() {
		return true
	}
	return v.Patch() == p.patch
}

// Matches reports whether v satisfies p.
func (p Pattern) Matches(v version.Version) bool {
	return Matches(v, p)
}

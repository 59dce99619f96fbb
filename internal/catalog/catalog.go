// Package catalog resolves plugin catalog entries against a running Neo4j
// version.
//
// A catalog lists, per plugin, the artifacts published for each supported
// version line. Entries keep the order in which the catalog listed them and
// resolution always picks the first compatible one.
package catalog

import (
	"github.com/frederic-klein/pluginver/internal/pattern"
	"github.com/frederic-klein/pluginver/internal/version"
)

// Entry is one catalog row for a plugin.
type Entry struct {
	PluginID      string
	Pattern       pattern.Pattern
	Artifact      string // download URI or file path
	PluginVersion string // value of the plugin's own field, e.g. "5.4.0" or "SNAPSHOT"
}

// Resolve returns the first entry whose pattern matches running. The second
// result is false when nothing matches, which callers treat as "plugin not
// available for this version" rather than an error.
func Resolve(running version.Version, entries []Entry) (Entry, bool) {
	for _, e := range entries {
		if e.Pattern.Matches(running) {
			return e, true
		}
	}
	return Entry{}, false
}

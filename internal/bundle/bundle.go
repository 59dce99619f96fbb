// Package bundle answers whether a Neo4j image already ships a plugin jar.
package bundle

import (
	"fmt"

	"github.com/frederic-klein/pluginver/internal/config"
	"github.com/frederic-klein/pluginver/internal/plugin"
	"github.com/frederic-klein/pluginver/internal/version"
)

// Rule states the version range, and optionally the edition, whose images
// ship a plugin.
type Rule struct {
	Plugin         string
	Since          version.Version
	Until          *version.Version // exclusive; nil means still bundled
	EnterpriseOnly bool
	Dir            string // image directory holding the jar
}

// Covers reports whether an image of the given version and edition ships
// the plugin.
func (r Rule) Covers(running version.Version, edition plugin.Edition) bool {
	if running.IsOlderThan(r.Since) {
		return false
	}
	if r.Until != nil && running.IsAtLeastVersion(*r.Until) {
		return false
	}
	if r.EnterpriseOnly && edition != plugin.EditionEnterprise {
		return false
	}
	return true
}

// Table maps plugin identifiers to their bundling rule.
type Table struct {
	rules map[string]Rule
}

// NewTable builds a table from rules. A later rule for the same plugin
// replaces an earlier one.
func NewTable(rules ...Rule) *Table {
	t := &Table{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		t.rules[r.Plugin] = r
	}
	return t
}

// FromConfig builds the table from the registry's bundled sections.
func FromConfig(cfg *config.Config) (*Table, error) {
	var rules []Rule
	for _, id := range cfg.IDs() {
		b := cfg.Plugins[id].Bundled
		if b == nil {
			continue
		}

		since, err := version.Parse(b.Since)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", id, err)
		}
		rule := Rule{Plugin: id, Since: since, EnterpriseOnly: b.EnterpriseOnly, Dir: b.Dir}
		if b.Until != "" {
			until, err := version.Parse(b.Until)
			if err != nil {
				return nil, fmt.Errorf("plugin %s: %w", id, err)
			}
			rule.Until = &until
		}
		rules = append(rules, rule)
	}
	return NewTable(rules...), nil
}

// Has reports whether the table knows the plugin at all.
func (t *Table) Has(id string) bool {
	_, ok := t.rules[id]
	return ok
}

// Lookup returns the rule for id if the image for running and edition ships
// the plugin.
func (t *Table) Lookup(running version.Version, edition plugin.Edition, id string) (Rule, bool) {
	r, ok := t.rules[id]
	if !ok || !r.Covers(running, edition) {
		return Rule{}, false
	}
	return r, true
}

package plugin

import (
	"fmt"
	"strings"

	"github.com/frederic-klein/pluginver/internal/version"
)

// Edition is the Neo4j product edition an image runs.
type Edition string

const (
	EditionCommunity  Edition = "community"
	EditionEnterprise Edition = "enterprise"
)

// ParseEdition accepts the edition names used by NEO4J_EDITION.
func ParseEdition(s string) (Edition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "community":
		return EditionCommunity, nil
	case "enterprise":
		return EditionEnterprise, nil
	default:
		return "", fmt.Errorf("unknown edition %q", s)
	}
}

// Request is a plugin asked for by the user, e.g. via NEO4J_PLUGINS.
type Request struct {
	ID string // e.g., "apoc", "graph-data-science"
}

// Action is what the installer does for a requested plugin.
type Action string

const (
	// ActionBundled copies the jar that ships inside the image.
	ActionBundled Action = "bundled"
	// ActionDownload fetches the jar listed in the plugin catalog.
	ActionDownload Action = "download"
	// ActionUnavailable skips the plugin for this version.
	ActionUnavailable Action = "unavailable"
)

// Decision is the verdict for one requested plugin.
type Decision struct {
	Plugin        string
	Action        Action
	Artifact      string // jar URL or path, empty when unavailable
	Pattern       string // catalog pattern that matched, download only
	PluginVersion string // catalog plugin field, download only
	Dir           string // image directory, bundled only ("labs", "products")
	Reason        string // why the plugin is unavailable
}

// Plan is the full set of decisions for one running version.
type Plan struct {
	Neo4j     version.Version
	Edition   Edition
	Decisions []Decision
}

// Count returns how many decisions carry the given action.
func (p *Plan) Count(action Action) int {
	n := 0
	for _, d := range p.Decisions {
		if d.Action == action {
			n++
		}
	}
	return n
}

package request

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/frederic-klein/pluginver/internal/plugin"
)

// Parser parses plugin request lists such as the NEO4J_PLUGINS value.
type Parser struct {
	aliases map[string]string
}

// NewParser creates a new request parser.
func NewParser() *Parser {
	return &Parser{aliases: defaultAliases}
}

// Names accepted for compatibility with older images.
var defaultAliases = map[string]string{
	"apoc-core":     "apoc",
	"gds":           "graph-data-science",
	"neosemantics":  "n10s",
	"neo4j-streams": "streams",
}

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Parse reads a JSON array of plugin names (["apoc", "bloom"]) or a plain
// comma separated list (apoc,bloom). Names are normalised and duplicates
// dropped while keeping the first occurrence's position.
func (p *Parser) Parse(value string) ([]plugin.Request, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	var names []string
	if strings.HasPrefix(value, "[") {
		if err := json.Unmarshal([]byte(value), &names); err != nil {
			return nil, fmt.Errorf("parsing plugin list: %w", err)
		}
	} else {
		names = strings.Split(value, ",")
	}

	seen := make(map[string]bool)
	var reqs []plugin.Request
	for _, name := range names {
		id := strings.ToLower(strings.TrimSpace(name))
		if id == "" {
			continue
		}
		if canonical, ok := p.aliases[id]; ok {
			id = canonical
		}
		if !nameRe.MatchString(id) {
			return nil, fmt.Errorf("invalid plugin name %q", name)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		reqs = append(reqs, plugin.Request{ID: id})
	}
	return reqs, nil
}

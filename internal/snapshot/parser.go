package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/frederic-klein/pluginver/internal/plugin"
	"github.com/frederic-klein/pluginver/internal/version"
)

var (
	neo4jRe      = regexp.MustCompile(`^NEO4J (\S+) (\S+)$`)
	pluginNameRe = regexp.MustCompile(`^  (\S+)$`)
	attributeRe  = regexp.MustCompile(`^    (\w+): (.+)$`)
)

// Parser reads snapshot files.
type Parser struct {
	r io.Reader
}

// NewParser creates a new snapshot parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Parse reads a plan from a snapshot file.
func (p *Parser) Parse() (*plugin.Plan, error) {
	plan := &plugin.Plan{}
	var current *plugin.Decision
	var sawNeo4j bool

	flush := func() {
		if current != nil {
			plan.Decisions = append(plan.Decisions, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(p.r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Skip header, PLUGINS line and blank lines
		if strings.HasPrefix(line, "#") || line == "PLUGINS" || line == "" {
			continue
		}

		if matches := neo4jRe.FindStringSubmatch(line); matches != nil {
			v, err := version.Parse(matches[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			edition, err := plugin.ParseEdition(matches[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			plan.Neo4j = v
			plan.Edition = edition
			sawNeo4j = true
			continue
		}

		// Plugin name (2-space indent)
		if matches := pluginNameRe.FindStringSubmatch(line); matches != nil {
			flush()
			current = &plugin.Decision{Plugin: matches[1]}
			continue
		}

		if current == nil {
			continue
		}

		// Attributes (4-space indent)
		if matches := attributeRe.FindStringSubmatch(line); matches != nil {
			value := matches[2]
			switch matches[1] {
			case "action":
				current.Action = plugin.Action(value)
			case "dir":
				current.Dir = value
			case "pattern":
				current.Pattern = value
			case "version":
				current.PluginVersion = value
			case "artifact":
				current.Artifact = value
			case "reason":
				current.Reason = value
			}
		}
	}

	// Don't forget the last plugin
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if !sawNeo4j {
		return nil, fmt.Errorf("reading snapshot: missing NEO4J line")
	}

	return plan, nil
}

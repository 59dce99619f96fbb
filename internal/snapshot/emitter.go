package snapshot

import (
	"fmt"
	"io"

	"github.com/frederic-klein/pluginver/internal/plugin"
)

const header = "# plugin snapshot format: version 1.0\n"

// Emitter writes plugin plans in snapshot format.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates a new snapshot emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes the plan. Decisions keep their request order.
func (e *Emitter) Emit(plan *plugin.Plan) error {
	if _, err := fmt.Fprint(e.w, header); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(e.w, "NEO4J %s %s\n", plan.Neo4j, plan.Edition); err != nil {
		return err
	}

	if _, err := fmt.Fprint(e.w, "PLUGINS\n"); err != nil {
		return err
	}

	for _, d := range plan.Decisions {
		if err := e.emitDecision(d); err != nil {
			return err
		}
	}

	return nil
}

func (e *Emitter) emitDecision(d plugin.Decision) error {
	// Plugin name with 2-space indent
	if _, err := fmt.Fprintf(e.w, "  %s\n", d.Plugin); err != nil {
		return err
	}

	// Attributes with 4-space indent, empty ones omitted
	attrs := []struct{ key, value string }{
		{"action", string(d.Action)},
		{"dir", d.Dir},
		{"pattern", d.Pattern},
		{"version", d.PluginVersion},
		{"artifact", d.Artifact},
		{"reason", d.Reason},
	}
	for _, a := range attrs {
		if a.value == "" {
			continue
		}
		if _, err := fmt.Fprintf(e.w, "    %s: %s\n", a.key, a.value); err != nil {
			return err
		}
	}

	return nil
}

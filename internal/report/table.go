// Package report renders plans for terminal output.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/frederic-klein/pluginver/internal/plugin"
)

// WritePlan renders one row per decision.
func WritePlan(w io.Writer, plan *plugin.Plan) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Neo4j %s (%s)", plan.Neo4j, plan.Edition)
	t.AppendHeader(table.Row{"PLUGIN", "ACTION", "SOURCE", "DETAIL"})

	for _, d := range plan.Decisions {
		source, detail := "", ""
		switch d.Action {
		case plugin.ActionBundled:
			source = d.Dir
		case plugin.ActionDownload:
			source = d.Pattern
			detail = d.Artifact
		case plugin.ActionUnavailable:
			detail = d.Reason
		}
		t.AppendRow(table.Row{d.Plugin, d.Action, source, detail})
	}

	t.AppendFooter(table.Row{
		"total",
		fmt.Sprintf("%d bundled, %d download, %d unavailable",
			plan.Count(plugin.ActionBundled), plan.Count(plugin.ActionDownload), plan.Count(plugin.ActionUnavailable)),
		"",
		len(plan.Decisions),
	})
	t.Render()
}

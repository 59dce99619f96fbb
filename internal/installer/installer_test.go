package installer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frederic-klein/pluginver/internal/bundle"
	"github.com/frederic-klein/pluginver/internal/catalog"
	"github.com/frederic-klein/pluginver/internal/pattern"
	"github.com/frederic-klein/pluginver/internal/plugin"
	"github.com/frederic-klein/pluginver/internal/version"
)

type fakeSource struct {
	entries  map[string][]catalog.Entry
	warnings map[string][]catalog.RowWarning
	errs     map[string]error
}

func (f *fakeSource) Entries(_ context.Context, id string) ([]catalog.Entry, []catalog.RowWarning, error) {
	if err, ok := f.errs[id]; ok {
		return nil, nil, err
	}
	entries, ok := f.entries[id]
	if !ok {
		return nil, nil, catalog.ErrNoSource
	}
	return entries, f.warnings[id], nil
}

func newFixture() (*bundle.Table, *fakeSource) {
	table := bundle.NewTable(
		bundle.Rule{Plugin: "apoc", Since: version.MustParse("5.0.0"), Dir: "labs"},
		bundle.Rule{Plugin: "bloom", Since: version.MustParse("5.0.0"), EnterpriseOnly: true, Dir: "products"},
		bundle.Rule{Plugin: "genai", Since: version.MustParse("5.17.0"), Dir: "products"},
	)

	entries := map[string][]catalog.Entry{
		"apoc": {
			{PluginID: "apoc", Pattern: pattern.MustParse("4.4.x"), Artifact: "https://example.org/apoc-4.4.jar", PluginVersion: "4.4.0.13"},
			{PluginID: "apoc", Pattern: pattern.MustParse("4.4.0"), Artifact: "https://example.org/apoc-4.4.0.jar"},
		},
		"bloom": {{PluginID: "bloom", Pattern: pattern.MustParse("5.4.*"), Artifact: "https://example.org/bloom-2.6.jar"}},
		"n10s":  {{PluginID: "n10s", Pattern: pattern.MustParse("5.4.x"), Artifact: "https://example.org/n10s-5.4.jar"}},
	}

	return table, &fakeSource{
		entries: entries,
		warnings: map[string][]catalog.RowWarning{
			"n10s": {{PluginID: "n10s", Index: 3, Err: &pattern.MalformedPatternError{Input: "5.4"}}},
		},
		errs: map[string]error{
			"streams": errors.New("fetching streams catalog: HTTP 503"),
		},
	}
}

func TestInstaller_Plan(t *testing.T) {
	tests := []struct {
		name     string
		running  string
		edition  plugin.Edition
		plugin   string
		action   plugin.Action
		artifact string
		dir      string
	}{
		{"bundled in labs", "5.4.0", plugin.EditionCommunity, "apoc", plugin.ActionBundled, "", "labs"},
		{"catalog first match", "4.4.0", plugin.EditionCommunity, "apoc", plugin.ActionDownload, "https://example.org/apoc-4.4.jar", ""},
		{"enterprise bundled", "5.4.0", plugin.EditionEnterprise, "bloom", plugin.ActionBundled, "", "products"},
		{"community downloads", "5.4.1", plugin.EditionCommunity, "bloom", plugin.ActionDownload, "https://example.org/bloom-2.6.jar", ""},
		{"community without catalog line", "5.6.0", plugin.EditionCommunity, "bloom", plugin.ActionUnavailable, "", ""},
		{"enterprise ignores catalog", "5.6.0", plugin.EditionEnterprise, "bloom", plugin.ActionBundled, "", "products"},
		{"catalog miss", "3.5.35", plugin.EditionCommunity, "apoc", plugin.ActionUnavailable, "", ""},
		{"catalog only plugin", "5.4.0-beta04", plugin.EditionCommunity, "n10s", plugin.ActionDownload, "https://example.org/n10s-5.4.jar", ""},
		{"bundled only, too old", "5.4.0", plugin.EditionCommunity, "genai", plugin.ActionUnavailable, "", ""},
		{"catalog fetch fails", "5.4.0", plugin.EditionCommunity, "streams", plugin.ActionUnavailable, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			table, source := newFixture()
			in := New(table, source, nil)

			// Act
			plan, err := in.Plan(context.Background(), version.MustParse(tt.running), tt.edition, []plugin.Request{{ID: tt.plugin}})

			// Assert
			require.NoError(t, err)
			require.Len(t, plan.Decisions, 1)
			d := plan.Decisions[0]
			assert.Equal(t, tt.plugin, d.Plugin)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.artifact, d.Artifact)
			assert.Equal(t, tt.dir, d.Dir)
			if tt.action == plugin.ActionUnavailable {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestInstaller_Plan_KeepsRequestOrder(t *testing.T) {
	table, source := newFixture()
	in := New(table, source, nil)

	plan, err := in.Plan(context.Background(), version.MustParse("5.4.0"), plugin.EditionEnterprise, []plugin.Request{
		{ID: "n10s"}, {ID: "apoc"}, {ID: "genai"}, {ID: "bloom"},
	})

	require.NoError(t, err)
	assert.Equal(t, version.MustParse("5.4.0"), plan.Neo4j)
	assert.Equal(t, plugin.EditionEnterprise, plan.Edition)

	var order []string
	for _, d := range plan.Decisions {
		order = append(order, d.Plugin)
	}
	assert.Equal(t, []string{"n10s", "apoc", "genai", "bloom"}, order)
	assert.Equal(t, "5.4.x", plan.Decisions[0].Pattern)
	assert.Equal(t, 2, plan.Count(plugin.ActionBundled))
}

func TestInstaller_Plan_UnknownPlugin(t *testing.T) {
	table, source := newFixture()
	in := New(table, source, nil)

	_, err := in.Plan(context.Background(), version.MustParse("5.4.0"), plugin.EditionCommunity, []plugin.Request{{ID: "apoc"}, {ID: "nope"}})

	require.ErrorIs(t, err, ErrUnknownPlugin)
	assert.Contains(t, err.Error(), "nope")
}

func TestInstaller_Plan_LogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	table, source := newFixture()
	in := New(table, source, log)

	_, err := in.Plan(context.Background(), version.MustParse("5.4.0"), plugin.EditionCommunity, []plugin.Request{{ID: "n10s"}, {ID: "streams"}})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Skipping catalog row")
	assert.Contains(t, out, "plugin=n10s")
	assert.Contains(t, out, "Plugin unavailable")
	assert.Contains(t, out, "plugin=streams")
}

func TestDownloads(t *testing.T) {
	plan := &plugin.Plan{Decisions: []plugin.Decision{
		{Plugin: "apoc", Action: plugin.ActionBundled, Dir: "labs"},
		{Plugin: "bloom", Action: plugin.ActionDownload, Artifact: "https://example.org/bloom-2.6.jar"},
		{Plugin: "streams", Action: plugin.ActionUnavailable},
		{Plugin: "n10s", Action: plugin.ActionDownload, Artifact: "/opt/jars/n10s-5.4.jar"},
		{Plugin: "graphql", Action: plugin.ActionDownload, Artifact: "https://example.org/graphql/"},
	}}

	jobs := Downloads(plan, "/plugins")

	require.Len(t, jobs, 3)
	assert.Equal(t, "bloom", jobs[0].Plugin)
	assert.Equal(t, "https://example.org/bloom-2.6.jar", jobs[0].URL)
	assert.Equal(t, filepath.Join("/plugins", "bloom-2.6.jar"), jobs[0].DestPath)
	assert.Equal(t, filepath.Join("/plugins", "n10s-5.4.jar"), jobs[1].DestPath)
	assert.Equal(t, filepath.Join("/plugins", "graphql.jar"), jobs[2].DestPath)
}

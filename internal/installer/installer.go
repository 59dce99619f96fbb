// Package installer decides, for every requested plugin, whether the image
// already ships it, whether a catalog artifact has to be downloaded, or
// whether the plugin is unavailable for the running version.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/frederic-klein/pluginver/internal/bundle"
	"github.com/frederic-klein/pluginver/internal/catalog"
	"github.com/frederic-klein/pluginver/internal/downloader"
	"github.com/frederic-klein/pluginver/internal/plugin"
	"github.com/frederic-klein/pluginver/internal/version"
)

// ErrUnknownPlugin is returned for plugins that have neither a bundling rule
// nor a catalog.
var ErrUnknownPlugin = errors.New("unknown plugin")

// CatalogSource supplies catalog entries per plugin.
type CatalogSource interface {
	Entries(ctx context.Context, pluginID string) ([]catalog.Entry, []catalog.RowWarning, error)
}

// Installer plans plugin installation for one image.
type Installer struct {
	bundles  *bundle.Table
	catalogs CatalogSource
	log      *slog.Logger
}

// New creates an installer. A nil logger discards output.
func New(bundles *bundle.Table, catalogs CatalogSource, log *slog.Logger) *Installer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Installer{
		bundles:  bundles,
		catalogs: catalogs,
		log:      log,
	}
}

// Plan decides every request in order. Only unknown plugins fail the plan;
// anything else that prevents an install yields ActionUnavailable.
func (in *Installer) Plan(ctx context.Context, running version.Version, edition plugin.Edition, reqs []plugin.Request) (*plugin.Plan, error) {
	plan := &plugin.Plan{Neo4j: running, Edition: edition}
	for _, req := range reqs {
		d, err := in.decide(ctx, running, edition, req.ID)
		if err != nil {
			return nil, err
		}
		in.log.Debug("Plugin decided", "plugin", d.Plugin, "action", d.Action, "artifact", d.Artifact)
		plan.Decisions = append(plan.Decisions, d)
	}
	return plan, nil
}

// decide falls through to the catalog whenever the image does not ship the
// plugin. That includes enterprise-only bundles on community images, which
// install the published jar instead.
func (in *Installer) decide(ctx context.Context, running version.Version, edition plugin.Edition, id string) (plugin.Decision, error) {
	if rule, ok := in.bundles.Lookup(running, edition, id); ok {
		return plugin.Decision{Plugin: id, Action: plugin.ActionBundled, Dir: rule.Dir}, nil
	}

	entries, warnings, err := in.catalogs.Entries(ctx, id)
	for _, w := range warnings {
		in.log.Warn("Skipping catalog row", "plugin", id, "row", w.Index, "error", w.Err)
	}

	if errors.Is(err, catalog.ErrNoSource) {
		if !in.bundles.Has(id) {
			return plugin.Decision{}, fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
		}
		reason := fmt.Sprintf("not bundled with %s %s and no catalog", edition, running)
		in.log.Warn("Plugin unavailable", "plugin", id, "reason", reason)
		return unavailable(id, reason), nil
	}
	if err != nil {
		reason := fmt.Sprintf("loading catalog: %v", err)
		in.log.Warn("Plugin unavailable", "plugin", id, "reason", reason)
		return unavailable(id, reason), nil
	}

	entry, ok := catalog.Resolve(running, entries)
	if !ok {
		reason := fmt.Sprintf("no catalog entry matches %s", running)
		in.log.Warn("Plugin unavailable", "plugin", id, "reason", reason)
		return unavailable(id, reason), nil
	}

	return plugin.Decision{
		Plugin:        id,
		Action:        plugin.ActionDownload,
		Artifact:      entry.Artifact,
		Pattern:       entry.Pattern.String(),
		PluginVersion: entry.PluginVersion,
	}, nil
}

func unavailable(id, reason string) plugin.Decision {
	return plugin.Decision{Plugin: id, Action: plugin.ActionUnavailable, Reason: reason}
}

// Downloads turns the download decisions of a plan into downloader jobs
// writing into destDir.
func Downloads(plan *plugin.Plan, destDir string) []downloader.Job {
	var jobs []downloader.Job
	for _, d := range plan.Decisions {
		if d.Action != plugin.ActionDownload {
			continue
		}
		jobs = append(jobs, downloader.Job{
			Plugin:   d.Plugin,
			URL:      d.Artifact,
			DestPath: filepath.Join(destDir, downloader.FileName(d.Plugin, d.Artifact)),
		})
	}
	return jobs
}

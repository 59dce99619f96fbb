package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frederic-klein/pluginver/internal/bundle"
	"github.com/frederic-klein/pluginver/internal/catalog"
	"github.com/frederic-klein/pluginver/internal/config"
	"github.com/frederic-klein/pluginver/internal/downloader"
	"github.com/frederic-klein/pluginver/internal/installer"
	"github.com/frederic-klein/pluginver/internal/logging"
	"github.com/frederic-klein/pluginver/internal/pattern"
	"github.com/frederic-klein/pluginver/internal/plugin"
	"github.com/frederic-klein/pluginver/internal/report"
	"github.com/frederic-klein/pluginver/internal/request"
	"github.com/frederic-klein/pluginver/internal/snapshot"
	"github.com/frederic-klein/pluginver/internal/version"
)

var (
	neo4jVersion string
	edition      string
	plugins      string
	registryPath string
	cacheDir     string
	snapshotPath string
	pluginsDir   string
	workers      int
	verbose      bool

	catalogPath string
	pluginID    string
	pluginField string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "pluginver",
		Short:        "Decide how Neo4j plugins are installed for a given product version",
		Long:         "pluginver matches a Neo4j version against plugin bundling metadata and plugin catalogs (versions.json) to decide whether each plugin ships with the image, has to be downloaded, or is unavailable.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	matchCmd := &cobra.Command{
		Use:   "match VERSION PATTERN",
		Short: "Check whether a Neo4j version matches a version pattern",
		Args:  cobra.ExactArgs(2),
		RunE:  runMatch,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Select the catalog entry for one plugin",
		RunE:  runResolve,
	}
	resolveCmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "Catalog document (path or URL)")
	resolveCmd.Flags().StringVarP(&pluginID, "plugin", "p", "", "Plugin identifier")
	resolveCmd.Flags().StringVar(&pluginField, "field", "", "Plugin version field in catalog rows (defaults to the plugin identifier)")
	resolveCmd.MarkFlagRequired("catalog")
	resolveCmd.MarkFlagRequired("plugin")
	addVersionFlags(resolveCmd)

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Decide bundled/download/unavailable for every requested plugin",
		RunE:  runPlan,
	}
	addVersionFlags(planCmd)
	addPlanFlags(planCmd)

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Plan and download the plugins that are not bundled",
		RunE:  runInstall,
	}
	addVersionFlags(installCmd)
	addPlanFlags(installCmd)
	installCmd.Flags().StringVarP(&pluginsDir, "plugins-dir", "d", "./plugins", "Directory receiving downloaded jars")
	installCmd.Flags().IntVarP(&workers, "workers", "w", 5, "Parallel download workers")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of a plugin catalog document",
		RunE:  runSchema,
	}

	rootCmd.AddCommand(matchCmd, resolveCmd, planCmd, installCmd, schemaCmd)
	return rootCmd
}

func addVersionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&neo4jVersion, "neo4j-version", "n", os.Getenv("NEO4J_VERSION"), "Running Neo4j version (env NEO4J_VERSION)")
	cmd.Flags().StringVarP(&edition, "edition", "e", envOr("NEO4J_EDITION", "community"), "Neo4j edition (env NEO4J_EDITION)")
}

func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&plugins, "plugins", os.Getenv("NEO4J_PLUGINS"), `Requested plugins, e.g. '["apoc","bloom"]' (env NEO4J_PLUGINS)`)
	cmd.Flags().StringVarP(&registryPath, "registry", "r", "", "Plugin registry YAML (defaults to the built-in registry)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "Catalog cache directory")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Write the plan to this snapshot file")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCacheDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pluginver")
	}
	return filepath.Join(homeDir, ".pluginver", "cache")
}

func runMatch(cmd *cobra.Command, args []string) error {
	v, err := version.Parse(args[0])
	if err != nil {
		return err
	}
	p, err := pattern.Parse(args[1])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), p.Matches(v))
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	log := logging.New(cmd.ErrOrStderr(), verbose)

	running, err := runningVersion()
	if err != nil {
		return err
	}

	field := pluginField
	if field == "" {
		field = pluginID
	}

	fetcher := catalog.NewFetcher(cacheDirOrDefault(), &http.Client{Timeout: 30 * time.Second})
	data, err := fetcher.Fetch(cmd.Context(), pluginID, catalogPath)
	if err != nil {
		return err
	}

	entries, warnings, err := catalog.Decode(pluginID, field, data)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn("Skipping catalog row", "plugin", pluginID, "row", w.Index, "error", w.Err)
	}
	log.Debug("Catalog loaded", "plugin", pluginID, "entries", len(entries))

	entry, ok := catalog.Resolve(running, entries)
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "no %s catalog entry matches %s\n", pluginID, running)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", pluginID, entry.Pattern, entry.Artifact)
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, err := buildPlan(cmd.Context(), logging.New(cmd.ErrOrStderr(), verbose))
	if err != nil {
		return err
	}
	report.WritePlan(cmd.OutOrStdout(), plan)
	return nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	log := logging.New(cmd.ErrOrStderr(), verbose)

	plan, err := buildPlan(cmd.Context(), log)
	if err != nil {
		return err
	}

	jobs := installer.Downloads(plan, pluginsDir)
	log.Info("Plan ready",
		"bundled", plan.Count(plugin.ActionBundled),
		"download", plan.Count(plugin.ActionDownload),
		"unavailable", plan.Count(plugin.ActionUnavailable))
	log.Info("Downloading plugins", "count", len(jobs), "dir", pluginsDir)

	dl := downloader.NewDownloader(workers, &http.Client{Timeout: 5 * time.Minute})
	var failed int
	for _, r := range dl.Download(cmd.Context(), jobs) {
		if r.Error != nil {
			failed++
			log.Error("Download failed", "plugin", r.Job.Plugin, "error", r.Error)
			continue
		}
		log.Debug("Downloaded", "plugin", r.Job.Plugin, "path", r.Job.DestPath)
	}

	report.WritePlan(cmd.OutOrStdout(), plan)
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(jobs))
	}
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	out, err := catalog.Schema()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func buildPlan(ctx context.Context, log *slog.Logger) (*plugin.Plan, error) {
	running, err := runningVersion()
	if err != nil {
		return nil, err
	}
	ed, err := plugin.ParseEdition(edition)
	if err != nil {
		return nil, err
	}

	reqs, err := request.NewParser().Parse(plugins)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no plugins requested")
	}

	cfg := config.Default()
	if registryPath != "" {
		if cfg, err = config.Load(registryPath); err != nil {
			return nil, err
		}
	}

	table, err := bundle.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading bundle table: %w", err)
	}

	fetcher := catalog.NewFetcher(cacheDirOrDefault(), &http.Client{Timeout: 30 * time.Second})
	loader := catalog.NewLoader(fetcher, cfg.Sources())

	in := installer.New(table, loader, logging.Subsystem(log, "Installer"))
	plan, err := in.Plan(ctx, running, ed, reqs)
	if err != nil {
		return nil, fmt.Errorf("planning plugins: %w", err)
	}

	if snapshotPath != "" {
		if err := writeSnapshot(snapshotPath, plan); err != nil {
			return nil, err
		}
		log.Debug("Snapshot written", "path", snapshotPath)
	}
	return plan, nil
}

func runningVersion() (version.Version, error) {
	if neo4jVersion == "" {
		return version.Version{}, fmt.Errorf("no Neo4j version given (use --neo4j-version or NEO4J_VERSION)")
	}
	v, err := version.Parse(neo4jVersion)
	if err != nil {
		return version.Version{}, fmt.Errorf("reading running version: %w", err)
	}
	return v, nil
}

func cacheDirOrDefault() string {
	if cacheDir == "" {
		return defaultCacheDir()
	}
	return cacheDir
}

func writeSnapshot(path string, plan *plugin.Plan) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer outFile.Close()

	if err := snapshot.NewEmitter(outFile).Emit(plan); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

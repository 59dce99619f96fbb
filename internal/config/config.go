// Package config loads the plugin registry: which plugins exist, where their
// catalogs live and which Neo4j versions ship them in the image.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/pluginver/internal/catalog"
	"github.com/frederic-klein/pluginver/internal/version"
)

//go:embed default.yaml
var defaultRegistry []byte

var validate = validator.New()

// Config is the plugin registry.
type Config struct {
	Plugins map[string]Plugin `yaml:"plugins" validate:"required,min=1,dive"`
}

// Plugin describes one plugin. At least one of Catalog and Bundled is set.
type Plugin struct {
	Catalog string   `yaml:"catalog" validate:"required_without=Bundled"`
	Field   string   `yaml:"field"`
	Bundled *Bundled `yaml:"bundled"`
}

// Bundled describes the versions whose images ship the plugin jar.
type Bundled struct {
	Since          string `yaml:"since" validate:"required"`
	Until          string `yaml:"until"` // exclusive
	EnterpriseOnly bool   `yaml:"enterpriseOnly"`
	Dir            string `yaml:"dir" validate:"required,oneof=labs products"`
}

// Default returns the embedded registry.
func Default() *Config {
	cfg, err := Parse(defaultRegistry)
	if err != nil {
		panic(fmt.Sprintf("embedded registry: %v", err))
	}
	return cfg
}

// Load reads a registry file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a registry document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and that bundling bounds are versions.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating registry: %w", err)
	}

	for _, id := range c.IDs() {
		b := c.Plugins[id].Bundled
		if b == nil {
			continue
		}
		since, err := version.Parse(b.Since)
		if err != nil {
			return fmt.Errorf("plugin %s: bundled.since: %w", id, err)
		}
		if b.Until == "" {
			continue
		}
		until, err := version.Parse(b.Until)
		if err != nil {
			return fmt.Errorf("plugin %s: bundled.until: %w", id, err)
		}
		if !until.IsNewerThan(since) {
			return fmt.Errorf("plugin %s: bundled.until %s must be after since %s", id, until, since)
		}
	}
	return nil
}

// IDs returns the plugin identifiers in sorted order.
func (c *Config) IDs() []string {
	ids := make([]string, 0, len(c.Plugins))
	for id := range c.Plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sources returns the catalog location of every plugin that has one.
func (c *Config) Sources() map[string]catalog.Source {
	sources := make(map[string]catalog.Source)
	for id, p := range c.Plugins {
		if p.Catalog == "" {
			continue
		}
		sources[id] = catalog.Source{Location: p.Catalog, Field: p.Field}
	}
	return sources
}

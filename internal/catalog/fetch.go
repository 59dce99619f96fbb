package catalog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const cacheTTL = 24 * time.Hour

// ErrNoSource is returned when no catalog location is known for a plugin.
var ErrNoSource = errors.New("no catalog source")

// Fetcher loads catalog documents from HTTP(S) URLs or local files. Remote
// documents are cached on disk for a day.
type Fetcher struct {
	cacheDir string
	client   *http.Client
	ttl      time.Duration
}

// NewFetcher creates a fetcher caching into cacheDir.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		cacheDir: cacheDir,
		client:   client,
		ttl:      cacheTTL,
	}
}

// Fetch returns the raw catalog document for pluginID found at location.
func (f *Fetcher) Fetch(ctx context.Context, pluginID, location string) ([]byte, error) {
	if !isRemote(location) {
		data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("reading %s catalog: %w", pluginID, err)
		}
		return data, nil
	}

	cacheFile := f.CachePath(pluginID, location)
	if f.isCacheValid(cacheFile) {
		if data, err := os.ReadFile(cacheFile); err == nil {
			return data, nil
		}
	}

	data, err := f.download(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("fetching %s catalog: %w", pluginID, err)
	}
	if !isJSONArray(data) {
		return nil, fmt.Errorf("fetching %s catalog: %s did not return a JSON array", pluginID, location)
	}

	if err := f.store(cacheFile, data); err != nil {
		return nil, fmt.Errorf("caching %s catalog: %w", pluginID, err)
	}
	return data, nil
}

// CachePath returns where the catalog for pluginID fetched from location is
// cached. Different locations never share a cache file.
func (f *Fetcher) CachePath(pluginID, location string) string {
	sum := sha256.Sum256([]byte(location))
	return filepath.Join(f.cacheDir, pluginID+"-"+hex.EncodeToString(sum[:])[:12]+".versions.json")
}

func (f *Fetcher) isCacheValid(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < f.ttl
}

func (f *Fetcher) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

func (f *Fetcher) store(path string, data []byte) error {
	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func isJSONArray(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) && json.Valid(data)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Source tells the loader where a plugin's catalog lives and which row
// field carries the plugin's own version.
type Source struct {
	Location string
	Field    string
}

// Loader fetches and decodes catalogs for known plugins.
type Loader struct {
	fetcher *Fetcher
	sources map[string]Source
}

// NewLoader creates a loader for the given plugin sources.
func NewLoader(fetcher *Fetcher, sources map[string]Source) *Loader {
	return &Loader{fetcher: fetcher, sources: sources}
}

// Entries returns the decoded catalog entries for pluginID in document order.
func (l *Loader) Entries(ctx context.Context, pluginID string) ([]Entry, []RowWarning, error) {
	src, ok := l.sources[pluginID]
	if !ok || src.Location == "" {
		return nil, nil, fmt.Errorf("%s: %w", pluginID, ErrNoSource)
	}

	data, err := l.fetcher.Fetch(ctx, pluginID, src.Location)
	if err != nil {
		return nil, nil, err
	}
	return Decode(pluginID, src.Field, data)
}

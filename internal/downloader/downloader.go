package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Job represents a download job.
type Job struct {
	Plugin   string
	URL      string // http(s) URL, file:// URL or local path
	DestPath string
}

// Result represents a download result.
type Result struct {
	Job   Job
	Error error
}

// Downloader fetches plugin jars in parallel.
type Downloader struct {
	workers int
	client  *http.Client
}

// NewDownloader creates a new downloader with the specified number of workers.
func NewDownloader(workers int, client *http.Client) *Downloader {
	if workers < 1 {
		workers = 1
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Downloader{
		workers: workers,
		client:  client,
	}
}

// Download runs all jobs and returns one result per job, in job order.
// A failing job does not stop the others.
func (d *Downloader) Download(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = Result{Job: job, Error: d.downloadOne(ctx, job)}
			return nil
		})
	}
	g.Wait()

	return results
}

func (d *Downloader) downloadOne(ctx context.Context, job Job) error {
	// Check if already present
	if info, err := os.Stat(job.DestPath); err == nil {
		if !info.Mode().IsRegular() {
			return fmt.Errorf("destination %s is not a regular file", job.DestPath)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(job.DestPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	var src io.ReadCloser
	if isRemote(job.URL) {
		body, err := d.get(ctx, job.URL)
		if err != nil {
			return err
		}
		src = body
	} else {
		f, err := os.Open(strings.TrimPrefix(job.URL, "file://"))
		if err != nil {
			return fmt.Errorf("opening %s: %w", job.URL, err)
		}
		src = f
	}
	defer src.Close()

	// Write to temp file first, then rename
	tmpPath := job.DestPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, src)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing file: %w", err)
	}

	if err := os.Rename(tmpPath, job.DestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}

func (d *Downloader) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: HTTP %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// FileName returns the jar file name for an artifact location. Locations
// without a final path segment fall back to "<plugin>.jar".
func FileName(pluginID, location string) string {
	location = strings.TrimPrefix(location, "file://")
	if i := strings.IndexAny(location, "?#"); i != -1 && isRemote(location) {
		location = location[:i]
	}
	parts := strings.Split(location, "/")
	name := parts[len(parts)-1]
	if name == "" || name == "." || name == ".." {
		return pluginID + ".jar"
	}
	return name
}

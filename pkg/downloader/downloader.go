package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Manifest describes the corpus to download: named document groups, each
// with its keywords and PDF files.
type Manifest struct {
	Documents []ManifestEntry `json:"documents"`
}

type ManifestEntry struct {
	Name     string        `json:"name"`
	Keywords []string      `json:"keywords"`
	PDFs     []ManifestPDF `json:"pdfs"`
}

type ManifestPDF struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(manifest.Documents) == 0 {
		return nil, fmt.Errorf("manifest %s lists no documents", path)
	}

	return &manifest, nil
}

// PDFCount returns the total number of files the manifest references.
func (m *Manifest) PDFCount() int {
	count := 0
	for _, doc := range m.Documents {
		count += len(doc.PDFs)
	}
	return count
}

type DownloaderConfig struct {
	MaxWorkers int
	RateLimit  float64 // requests per second
	Timeout    time.Duration

	OnProgress func(filename string)
	OnError    func(filename string, err error)
}

// Downloader fetches manifest files through a bounded worker pool. A fetch
// failure skips that file and continues; cancelling the context stops all
// workers and removes partially written files.
type Downloader struct {
	config  DownloaderConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config DownloaderConfig) *Downloader {
	if config.MaxWorkers == 0 {
		config.MaxWorkers = 5
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}

	return &Downloader{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Download fetches every manifest file that is missing or stale locally and
// returns the number of files actually written.
func (d *Downloader) Download(ctx context.Context, manifest *Manifest, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(d.config.MaxWorkers)

	var downloaded int32
	for _, doc := range manifest.Documents {
		for _, pdf := range doc.PDFs {
			pdf := pdf
			group.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				fetched, err := d.fetchOne(ctx, pdf, dir)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					if d.config.OnError != nil {
						d.config.OnError(pdf.Filename, err)
					}
					return nil
				}

				if fetched {
					atomic.AddInt32(&downloaded, 1)
				}
				if d.config.OnProgress != nil {
					d.config.OnProgress(pdf.Filename)
				}
				return nil
			})
		}
	}

	err := group.Wait()
	return int(atomic.LoadInt32(&downloaded)), err
}

func (d *Downloader) fetchOne(ctx context.Context, pdf ManifestPDF, dir string) (bool, error) {
	path := filepath.Join(dir, pdf.Filename)

	stale, err := d.isStale(ctx, path, pdf.URL)
	if err != nil {
		return false, err
	}
	if !stale {
		return false, nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdf.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch %s: %w", pdf.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pdf.URL)
	}

	file, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(path) // do not leave a truncated file behind
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("failed to close %s: %w", path, err)
	}

	return true, nil
}

// isStale reports whether the local copy is missing, older than the remote
// Last-Modified, or notably smaller than the remote Content-Length.
func (d *Downloader) isStale(ctx context.Context, path, url string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", url, err)
	}
	defer resp.Body.Close()

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		remoteTime, err := time.Parse(http.TimeFormat, lastModified)
		if err == nil && !info.ModTime().After(remoteTime) {
			return true, nil
		}
	}

	if resp.ContentLength > 0 {
		if float64(info.Size())/float64(resp.ContentLength) <= 0.9 {
			return true, nil
		}
	}

	return false, nil
}

package downloader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madslundt/aws-rag/pkg/downloader"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `{
		"documents": [
			{
				"name": "EC2",
				"keywords": ["compute", "instances"],
				"pdfs": [
					{"url": "https://example.com/ec2.pdf", "filename": "ec2.pdf"},
					{"url": "https://example.com/ec2-api.pdf", "filename": "ec2-api.pdf"}
				]
			},
			{
				"name": "S3",
				"keywords": ["storage"],
				"pdfs": [{"url": "https://example.com/s3.pdf", "filename": "s3.pdf"}]
			}
		]
	}`)

	manifest, err := downloader.LoadManifest(path)
	require.NoError(t, err)

	assert.Len(t, manifest.Documents, 2)
	assert.Equal(t, "EC2", manifest.Documents[0].Name)
	assert.Equal(t, []string{"compute", "instances"}, manifest.Documents[0].Keywords)
	assert.Equal(t, 3, manifest.PDFCount())
}

func TestLoadManifestInvalid(t *testing.T) {
	_, err := downloader.LoadManifest(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = downloader.LoadManifest(writeManifest(t, "not json"))
	assert.Error(t, err)

	_, err = downloader.LoadManifest(writeManifest(t, `{"documents": []}`))
	assert.Error(t, err)
}

func TestDownloadFetchesMissingFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pdf bytes for " + r.URL.Path))
	}))
	defer server.Close()

	manifest := &downloader.Manifest{Documents: []downloader.ManifestEntry{{
		Name: "docs",
		PDFs: []downloader.ManifestPDF{
			{URL: server.URL + "/a.pdf", Filename: "a.pdf"},
			{URL: server.URL + "/b.pdf", Filename: "b.pdf"},
		},
	}}}

	dir := t.TempDir()
	var progressed []string
	d := downloader.NewWithConfig(downloader.DownloaderConfig{
		RateLimit:  1000,
		OnProgress: func(name string) { progressed = append(progressed, name) },
	})

	count, err := d.Download(context.Background(), manifest, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, progressed, 2)

	data, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes for /a.pdf", string(data))
}

func TestDownloadSkipsFreshLocalFile(t *testing.T) {
	content := []byte("stable pdf content")
	remoteModified := time.Now().Add(-24 * time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", remoteModified.UTC().Format(http.TimeFormat))
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "18")
			return
		}
		w.Write(content)
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(path, content, 0644))
	// Local copy newer than the remote and complete in size.
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now()))

	manifest := &downloader.Manifest{Documents: []downloader.ManifestEntry{{
		Name: "docs",
		PDFs: []downloader.ManifestPDF{{URL: server.URL + "/a.pdf", Filename: "a.pdf"}},
	}}}

	d := downloader.NewWithConfig(downloader.DownloaderConfig{RateLimit: 1000})
	count, err := d.Download(context.Background(), manifest, dir)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDownloadRefetchesTruncatedFile(t *testing.T) {
	content := []byte("the complete remote pdf content body")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", time.Now().Add(-24*time.Hour).UTC().Format(http.TimeFormat))
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "36")
			return
		}
		w.Write(content)
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(path, content[:10], 0644)) // truncated local copy
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now()))

	manifest := &downloader.Manifest{Documents: []downloader.ManifestEntry{{
		Name: "docs",
		PDFs: []downloader.ManifestPDF{{URL: server.URL + "/a.pdf", Filename: "a.pdf"}},
	}}}

	d := downloader.NewWithConfig(downloader.DownloaderConfig{RateLimit: 1000})
	count, err := d.Download(context.Background(), manifest, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestDownloadReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	manifest := &downloader.Manifest{Documents: []downloader.ManifestEntry{{
		Name: "docs",
		PDFs: []downloader.ManifestPDF{{URL: server.URL + "/a.pdf", Filename: "a.pdf"}},
	}}}

	var failures []string
	d := downloader.NewWithConfig(downloader.DownloaderConfig{
		RateLimit: 1000,
		OnError:   func(name string, err error) { failures = append(failures, name) },
	})

	count, err := d.Download(context.Background(), manifest, t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, []string{"a.pdf"}, failures)
}

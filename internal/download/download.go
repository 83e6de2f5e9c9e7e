// Package download streams package artifacts to a local staging directory.
//
// Downloads go through a retrying HTTP client, land in a temporary file,
// and are moved into place with an atomic rename. Progress is reported as
// a 0-100 percentage through a callback invoked from the download
// goroutine; callers must not block inside it.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the default number of download retries.
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests.
	// Some vendor download endpoints refuse non-browser agents.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// progressChunk is the copy buffer size between progress reports.
	progressChunk = 64 * 1024
)

// Error describes a failed artifact download.
type Error struct {
	URL   string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ProgressFunc receives download progress as a percentage in [0,100].
// It is called synchronously from the download loop.
type ProgressFunc func(percent int)

// Downloader fetches artifacts into a staging directory.
type Downloader struct {
	client     *retryablehttp.Client
	stagingDir string
	userAgent  string
}

// New creates a downloader staging files under dir.
func New(dir string, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := retryablehttp.NewClient()
	client.RetryMax = DefaultRetries
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &Downloader{
		client:     client,
		stagingDir: dir,
		userAgent:  DefaultUserAgent,
	}
}

// Fetch downloads url into the staging directory under filename and
// returns the final path. Partial files never appear at the final path;
// the temporary file is removed on any failure.
func (d *Downloader) Fetch(ctx context.Context, url, filename string, progress ProgressFunc) (string, error) {
	if url == "" {
		return "", &Error{URL: url, Cause: fmt.Errorf("empty URL")}
	}

	if err := os.MkdirAll(d.stagingDir, 0755); err != nil {
		return "", &Error{URL: url, Cause: fmt.Errorf("create staging dir: %w", err)}
	}

	destPath := filepath.Join(d.stagingDir, filename)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{URL: url, Cause: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &Error{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: url, Cause: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return "", &Error{URL: url, Cause: fmt.Errorf("create temp file: %w", err)}
	}

	// Track whether we need to clean up the temp file
	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if err := copyWithProgress(tmpFile, resp.Body, resp.ContentLength, progress); err != nil {
		return "", &Error{URL: url, Cause: fmt.Errorf("copy response body: %w", err)}
	}

	if err := tmpFile.Sync(); err != nil {
		return "", &Error{URL: url, Cause: fmt.Errorf("sync temp file: %w", err)}
	}

	// Close temp file before rename
	if err := tmpFile.Close(); err != nil {
		return "", &Error{URL: url, Cause: fmt.Errorf("close temp file: %w", err)}
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", &Error{URL: url, Cause: fmt.Errorf("rename temp file: %w", err)}
	}

	cleanupNeeded = false

	if progress != nil {
		progress(100)
	}

	return destPath, nil
}

// Cleanup removes a downloaded artifact and, when empty, the staging dir.
func (d *Downloader) Cleanup(path string) {
	if path == "" || !strings.HasPrefix(path, d.stagingDir) {
		return
	}
	os.Remove(path)
	// Best effort: fails while other downloads are staged, which is fine.
	os.Remove(d.stagingDir)
}

// copyWithProgress copies src to dst, reporting percentage progress when
// the total size is known. Unknown sizes report no intermediate progress.
func copyWithProgress(dst io.Writer, src io.Reader, total int64, progress ProgressFunc) error {
	if progress == nil || total <= 0 {
		_, err := io.Copy(dst, src)
		return err
	}

	var written int64
	lastPercent := -1
	buf := make([]byte, progressChunk)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			written += int64(n)

			percent := int(written * 100 / total)
			if percent > 100 {
				percent = 100
			}
			if percent != lastPercent {
				progress(percent)
				lastPercent = percent
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

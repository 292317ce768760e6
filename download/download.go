// Package download streams HTTP response bodies to disk and reports a
// structured outcome for every attempt.
//
// A transfer writes directly to its final destination path. A failure
// part-way through leaves the partial file in place; the outcome says what
// went wrong and the bytes on disk reflect what had arrived. Checksum
// verification is the one path that removes the file.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"urlsave/fetch"
)

// Downloader executes URL-to-file transfers.
type Downloader struct {
	client *fetch.Client
	log    *slog.Logger
}

// New creates a Downloader using client for outbound requests.
// client must not be nil. A nil logger falls back to slog.Default().
func New(client *fetch.Client, log *slog.Logger) *Downloader {
	if log == nil {
		log = slog.Default()
	}

	return &Downloader{client: client, log: log}
}

// Save fetches rawURL and streams the body to destPath, which must already
// be an absolute, authorized path. Every possible error is folded into the
// returned Outcome; Save never panics and never returns a Go error.
func (d *Downloader) Save(ctx context.Context, rawURL, destPath string, optFns ...Option) Outcome {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return Failure(KindInternal, fmt.Sprintf("applying option: %v", err))
		}
	}

	u, err := parseURL(rawURL)
	if err != nil {
		return Failure(KindValidation, err.Error())
	}

	if opts.skipExisting {
		if info, err := os.Stat(destPath); err == nil && info.Mode().IsRegular() {
			d.log.Info("skipping existing file", "path", destPath)
			return Success(destPath, info.Size(), detectContentType(destPath), rawURL, 0)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Failure(KindFilesystem, fmt.Sprintf("creating directory %q: %v", filepath.Dir(destPath), err))
	}

	resp, err := d.client.Get(ctx, u)
	if err != nil {
		return Failure(KindNetwork, fmt.Sprintf("fetching url: %v", err))
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, resp.Body); err != nil {
				d.log.Error("failed to discard unused body", "error", err)
			}
		}
		if err := resp.Body.Close(); err != nil {
			d.log.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := fmt.Sprintf("HTTP error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return ResponseFailure(KindHTTP, reason, rawURL, resp.StatusCode)
	}

	size, err := d.stream(ctx, resp, destPath, &opts)
	if err != nil {
		discardBody = false
		return ResponseFailure(classify(err), err.Error(), rawURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	d.log.Info("saved url content", "url", rawURL, "path", destPath, "bytes", size, "status", resp.StatusCode)

	return Success(destPath, size, contentType, rawURL, resp.StatusCode)
}

// stream pipes the response body into destPath and returns the byte count
// of the file actually written. The count comes from a stat of the final
// file, not from a possibly absent Content-Length header.
func (d *Downloader) stream(ctx context.Context, resp *http.Response, destPath string, opts *options) (int64, error) {
	file, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating file %q: %w", destPath, err)
	}

	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			d.log.Error("defer closing file", "error", err)
		}
	}()

	var writer io.Writer = file
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}
	if opts.tee != nil {
		writer = io.MultiWriter(writer, opts.tee)
	}
	if opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    d.log,
			total:     resp.ContentLength,
			startTime: time.Now(),
		}
	}

	body := &contextReader{ctx: ctx, r: resp.Body}

	if _, err := io.Copy(writer, body); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		return 0, fmt.Errorf("streaming response body to disk: %w", err)
	}

	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("syncing file: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("closing file: %w", err)
	}

	if err := opts.checksum.Verify(); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			d.log.Error("failed to remove file after checksum mismatch", "error", rmErr)
		}

		return 0, err
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return 0, fmt.Errorf("inspecting written file: %w", err)
	}

	return info.Size(), nil
}

// parseURL enforces the URL contract: absolute, http or https, with a host.
// Messages are user facing and travel verbatim in the failure payload.
func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid URL %q: %v", raw, err)
	}

	if u.Scheme == "" {
		return nil, fmt.Errorf("Invalid URL %q: missing scheme", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("Invalid URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("Invalid URL %q: missing host", raw)
	}

	return u, nil
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrChecksumMismatch):
		return KindValidation
	default:
		return KindFilesystem
	}
}

// detectContentType sniffs an existing file. Used only on the skip-existing
// path, where no response supplies a header.
func detectContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}

	return mt.String()
}

package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Client wraps HTTP operations with downloader-specific configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - A per-request timeout covering connect, headers and body
//   - File download with progress tracking
//
// Example usage:
//
//	client := NewClient(10*time.Second, "MangaDownloader")
//
//	// Download a page image with progress
//	err := client.DownloadFile(ctx, pageURL, "/tmp/ws/image_000.jpg", func(written, total int64) {
//	    fmt.Printf("%d/%d bytes\n", written, total)
//	})
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
//
// timeout bounds a single request including reading the body; a zero timeout
// means no limit. An empty userAgent leaves Go's default header in place.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// It is -1 when the server does not announce a length.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// DownloadFile downloads a URL to destPath with optional progress callback.
//
// The file is created (or truncated if it exists) and the content is streamed
// directly to disk. Any 2xx status is accepted; other statuses return a
// *StatusError. If the request or the copy fails, the partially written file
// is removed so callers never see truncated content at destPath.
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: URL to download from
//   - destPath: Local file path to save to
//   - onProgress: Optional callback called with (bytesWritten, totalBytes)
//     Pass nil to disable progress tracking
//
// Example:
//
//	err := client.DownloadFile(ctx, imageURL, "/tmp/ws/image_001.png", nil)
//	var statusErr *StatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
//	    // page is gone
//	}
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(destPath)
		}
	}()

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	if _, err = io.Copy(writer, resp.Body); err != nil {
		return fmt.Errorf("reading body of %s: %w", url, err)
	}
	return nil
}

// IsTimeout reports whether err was caused by a request or context deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

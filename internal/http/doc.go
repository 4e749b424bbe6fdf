// Package http provides the HTTP client used to fetch chapter page images.
//
// The Client in this package handles:
//   - User-Agent headers
//   - A per-request timeout (one retry attempt)
//   - Streaming downloads to disk with progress tracking
//   - Typed errors for non-2xx responses
//
// # Basic Usage
//
//	client := http.NewClient(10*time.Second, "MangaDownloader")
//
//	// Download a page image with progress callback
//	err := client.DownloadFile(ctx, imageURL, "/tmp/ws/image_000.jpg", func(written, total int64) {
//	    fmt.Printf("%d bytes\n", written)
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
//
// Retries are not handled here; see package fetch.
package http

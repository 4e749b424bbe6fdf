package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	httpclient "github.com/handiism/manga-downloader/internal/http"
	"github.com/handiism/manga-downloader/internal/model"
)

// Downloader streams a remote resource to a local file.
//
// *http.Client from the internal http package satisfies this interface.
type Downloader interface {
	DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error
}

// QualityChecker validates a downloaded image.
//
// *ioutils.ImageService satisfies this interface.
type QualityChecker interface {
	CheckQuality(path string) error
}

// Options configures retry behaviour of a Fetcher.
type Options struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int

	// BaseDelay is the wait before the first retry. Each following wait
	// doubles it.
	BaseDelay time.Duration

	// OnBackoff, if set, is called before every backoff wait with the number
	// of the attempt that will follow and the delay.
	OnBackoff func(attempt uint, delay time.Duration, err error)

	// OnSaved, if set, is called once a page has been downloaded and has
	// passed the quality check, with the number of bytes written.
	OnSaved func(index int, size int64)
}

// Request identifies one page image to fetch.
type Request struct {
	// Index is the position of URL in the chapter's image list.
	Index int

	// URL is the remote image locator.
	URL string

	// Dir is the workspace directory the file is written to.
	Dir string
}

// Path returns the local file path for the request, "image_<index><ext>"
// inside Dir. The extension comes from the URL when it names a known image
// type and is ".img" otherwise.
func (r Request) Path() string {
	return filepath.Join(r.Dir, fmt.Sprintf("image_%03d%s", r.Index, imageExt(r.URL)))
}

// Fetcher downloads single page images with bounded retries.
//
// A Fetcher never fails its caller: every call to Fetch records exactly one
// result in the supplied Collector, either the validated local path or an
// absence marker carrying the reason.
//
// Example:
//
//	f := fetch.NewFetcher(client, images, fetch.Options{
//	    MaxRetries: 3,
//	    BaseDelay:  time.Second,
//	}, logger)
//
//	c := fetch.NewCollector(len(urls))
//	for i, u := range urls {
//	    f.Fetch(ctx, fetch.Request{Index: i, URL: u, Dir: workspace}, c)
//	}
//	results := c.Results() // ordered by index
type Fetcher struct {
	client  Downloader
	checker QualityChecker
	opts    Options
	logger  *zap.Logger
}

// NewFetcher creates a Fetcher. A nil logger disables logging.
func NewFetcher(client Downloader, checker QualityChecker, opts Options, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Fetcher{
		client:  client,
		checker: checker,
		opts:    opts,
		logger:  logger,
	}
}

// Fetch downloads req.URL into the workspace, validates it and records the
// outcome in c.
//
// Every failed attempt is retried, whatever the cause: transport errors,
// timeouts and non-2xx statuses alike. The context is checked before every
// attempt. Once it is done no further attempts are made and an absence
// marker is recorded. The quality check
// runs once after a successful download and is not retried.
func (f *Fetcher) Fetch(ctx context.Context, req Request, c *Collector) {
	c.Add(f.fetch(ctx, req))
}

func (f *Fetcher) fetch(ctx context.Context, req Request) model.FetchResult {
	result := model.FetchResult{Index: req.Index, URL: req.URL}
	dest := req.Path()
	log := f.logger.With(zap.Int("index", req.Index), zap.String("url", req.URL))

	var (
		attempts uint
		written  int64
	)
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}
			attempts++
			written = 0
			return f.client.DownloadFile(ctx, req.URL, dest, func(n, _ int64) { written = n })
		},
		retry.Attempts(uint(f.opts.MaxRetries)+1),
		retry.Delay(f.opts.BaseDelay),
		retry.DelayType(f.backoff),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("fetch attempt failed",
				zap.Uint("attempt", n+1),
				zap.Bool("timeout", httpclient.IsTimeout(err)),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		log.Warn("fetch gave up", zap.Uint("attempts", attempts), zap.Error(err))
		result.Err = err
		return result
	}

	if err := f.checker.CheckQuality(dest); err != nil {
		log.Warn("image rejected", zap.Error(err))
		result.Err = fmt.Errorf("quality check: %w", err)
		return result
	}

	if f.opts.OnSaved != nil {
		f.opts.OnSaved(req.Index, written)
	}
	result.Path = dest
	return result
}

// backoff doubles the base delay per retry and reports it to OnBackoff.
func (f *Fetcher) backoff(n uint, err error, config *retry.Config) time.Duration {
	d := retry.BackOffDelay(n, err, config)
	if f.opts.OnBackoff != nil {
		f.opts.OnBackoff(n+1, d, err)
	}
	return d
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

func imageExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".img"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if imageExts[ext] {
		return ext
	}
	return ".img"
}

package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/fetch"
	"github.com/handiism/manga-downloader/internal/http"
	ioutils "github.com/handiism/manga-downloader/internal/io"
	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/pdf"
)

// ErrComposeTimeout is returned when a document creation attempt exceeds
// the configured PDF creation timeout.
var ErrComposeTimeout = errors.New("document creation timed out")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
//
// Completed and Total count work units: one per page image plus one per
// chapter for document assembly.
type ProgressEvent struct {
	Message   string
	Level     ProgressLevel
	Completed int64
	Total     int64
}

// Fetcher downloads one page image and records the result in a collector.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request, c *fetch.Collector)
}

// Normalizer converts a page image to the canonical format.
type Normalizer interface {
	Normalize(ctx context.Context, path string) (string, error)
}

// Composer assembles page images into a document.
type Composer interface {
	Compose(ctx context.Context, images []string, outPath string, meta pdf.Metadata) (int, error)
}

// Verifier checks a finished document.
type Verifier interface {
	Verify(path string) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithFetcher replaces the page fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithNormalizer replaces the format normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(m *Manager) { m.normalizer = n }
}

// WithComposer replaces the document compositor.
func WithComposer(c Composer) Option {
	return func(m *Manager) { m.composer = c }
}

// WithVerifier replaces the integrity verifier.
func WithVerifier(v Verifier) Option {
	return func(m *Manager) { m.verifier = v }
}

// Manager coordinates chapter downloads.
//
// For every chapter the Manager fetches all page images concurrently,
// normalizes them, assembles them into a PDF with a timeout and retries,
// verifies the document and moves it to the output directory. Failures
// never abort the batch; they are reported in the chapter's outcome.
//
// A Manager runs one batch at a time.
type Manager struct {
	settings   *config.Settings
	fetcher    Fetcher
	normalizer Normalizer
	composer   Composer
	verifier   Verifier
	logger     *zap.Logger

	completedUnits int64
	totalUnits     int64

	onProgress func(ProgressEvent)
	progressMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewManager creates a new download Manager.
//
// onProgress may be nil. It is never called concurrently. Components not
// supplied through options are built from settings.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		settings:   settings,
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	images := ioutils.NewImageService()
	if m.fetcher == nil {
		client := http.NewClient(settings.RequestTimeout(), settings.UserAgent)
		m.fetcher = fetch.NewFetcher(client, images, fetch.Options{
			MaxRetries: settings.MaxRetries,
			BaseDelay:  settings.BackoffBase(),
			OnBackoff: func(attempt uint, d time.Duration, err error) {
				m.logger.Debug("fetch backoff", zap.Uint("next_attempt", attempt), zap.Duration("delay", d), zap.Error(err))
			},
			OnSaved: func(index int, size int64) {
				m.progress(ProgressEvent{
					Message: fmt.Sprintf("Page %d saved (%.1f KB)", index+1, float64(size)/1024),
					Level:   LevelVerbose,
				})
			},
		}, m.logger)
	}
	if m.normalizer == nil {
		m.normalizer = images
	}
	if m.composer == nil {
		w, h := settings.PageSize.Dimensions()
		m.composer = pdf.NewCompositor(images, pdf.Options{
			PageWidth:  w,
			PageHeight: h,
			DPI:        settings.PageDPI,
		}, m.logger)
	}
	if m.verifier == nil {
		m.verifier = pdf.NewVerifier()
	}

	return m
}

// ProcessBatch downloads and assembles every job and returns one outcome per
// job in submission order.
//
// After a full pass, if any chapter failed and batch retries remain, the
// batch is processed again. By default every job is re-run; with
// RetryFailedOnly only the failed jobs are, and their new outcomes replace
// the old ones.
//
// If ctx is cancelled or Cancel is called, no further chapter is started and
// an empty slice is returned. The error is non-nil only when the settings are
// invalid or the output directory cannot be created.
func (m *Manager) ProcessBatch(ctx context.Context, jobs []model.ChapterJob) ([]model.ChapterOutcome, error) {
	if err := m.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if err := ioutils.EnsureDir(m.settings.OutputPath); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if m.settings.TempDir != "" {
		if err := ioutils.EnsureDir(m.settings.TempDir); err != nil {
			return nil, fmt.Errorf("creating temporary directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.setCancel(cancel)
	defer m.setCancel(nil)

	atomic.StoreInt64(&m.completedUnits, 0)
	atomic.StoreInt64(&m.totalUnits, 0)

	run := model.NewBatchRun(jobs, m.settings.MaxBatchRetries)
	log := m.logger.With(zap.String("batch", run.ID))
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Processing %d chapter(s), %d page(s)", len(run.Jobs), run.TotalImages()),
		Level:   LevelInfo,
	})

	pending := make([]int, len(jobs))
	for i := range jobs {
		pending[i] = i
	}

	outcomes := make([]model.ChapterOutcome, len(jobs))

	for {
		m.addTotal(jobs, pending)
		log.Info("batch pass started", zap.Int("attempt", run.Attempt), zap.Int("chapters", len(pending)))

		for _, i := range pending {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = m.processChapter(ctx, run, jobs[i])
		}

		if ctx.Err() != nil {
			log.Info("batch cancelled", zap.Int("attempt", run.Attempt))
			m.progress(ProgressEvent{Message: "Download cancelled", Level: LevelWarning})
			return []model.ChapterOutcome{}, nil
		}

		run.Failures = model.CountFailures(outcomes)
		log.Info("batch pass finished", zap.Int("attempt", run.Attempt), zap.Int("failures", run.Failures))

		if !run.CanRetry() {
			break
		}
		run.Attempt++

		m.progress(ProgressEvent{
			Message: fmt.Sprintf("%d chapter(s) failed, retrying batch (%d/%d)", run.Failures, run.Attempt, run.MaxRetries),
			Level:   LevelWarning,
		})

		if m.settings.RetryFailedOnly {
			pending = pending[:0]
			for i, o := range outcomes {
				if !o.Success {
					pending = append(pending, i)
				}
			}
		}
	}

	if run.Failures == 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("All %d chapter(s) downloaded", len(jobs)), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finished with %d failed chapter(s)", run.Failures), Level: LevelWarning})
	}
	return outcomes, nil
}

// Cancel stops the running batch, if any.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

// GetProgress returns completed and total work units of the current batch.
func (m *Manager) GetProgress() (completed, total int64) {
	return atomic.LoadInt64(&m.completedUnits), atomic.LoadInt64(&m.totalUnits)
}

func (m *Manager) processChapter(ctx context.Context, run *model.BatchRun, job model.ChapterJob) model.ChapterOutcome {
	log := m.logger.With(
		zap.String("batch", run.ID),
		zap.String("chapter", job.ID),
		zap.Int("attempt", run.Attempt),
	)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloading %s (%d pages)", job.Label(), len(job.ImageURLs)), Level: LevelInfo})

	workspace, err := os.MkdirTemp(m.settings.TempDir, "manga-dl-*")
	if err != nil {
		m.advance(int64(len(job.ImageURLs)) + 1)
		return m.fail(log, job, fmt.Sprintf("creating workspace: %v", err))
	}

	// Abandoned compose attempts may still be writing into the workspace
	var inflight sync.WaitGroup
	defer func() {
		inflight.Wait()
		if err := os.RemoveAll(workspace); err != nil {
			log.Warn("removing workspace", zap.String("path", workspace), zap.Error(err))
		}
	}()

	results := m.fetchPages(ctx, job, workspace)
	if ctx.Err() != nil {
		return model.Failed(job, "cancelled")
	}

	images := m.normalizePages(ctx, job, results, log)
	if len(images) == 0 {
		m.advance(1)
		return m.fail(log, job, "no page images could be downloaded")
	}

	pages, docPath, err := m.composeWithRetry(ctx, job, images, workspace, &inflight, log)
	m.advance(1)
	if err != nil {
		if ctx.Err() != nil {
			return model.Failed(job, "cancelled")
		}
		return m.fail(log, job, fmt.Sprintf("creating document: %v", err))
	}

	if err := m.verifier.Verify(docPath); err != nil {
		return m.fail(log, job, err.Error())
	}

	finalPath := filepath.Join(m.settings.OutputPath, job.FileName())
	if err := ioutils.MoveFile(ctx, docPath, finalPath); err != nil {
		return m.fail(log, job, fmt.Sprintf("moving document: %v", err))
	}

	log.Info("chapter saved", zap.String("path", finalPath), zap.Int("pages", pages))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Saved %s", filepath.Base(finalPath)), Level: LevelSuccess})
	return model.Succeeded(job, finalPath, pages)
}

// fetchPages downloads every page image of job into workspace with at most
// MaxConcurrentDownloads fetches in flight and returns the results ordered
// by page index.
func (m *Manager) fetchPages(ctx context.Context, job model.ChapterJob, workspace string) []model.FetchResult {
	collector := fetch.NewCollector(len(job.ImageURLs))
	gate := semaphore.NewWeighted(int64(m.settings.MaxConcurrentDownloads))

	var g errgroup.Group
	for i, url := range job.ImageURLs {
		g.Go(func() error {
			defer m.advance(1)

			if err := gate.Acquire(ctx, 1); err != nil {
				collector.Add(model.FetchResult{Index: i, URL: url, Err: err})
				return nil
			}
			defer gate.Release(1)

			m.fetcher.Fetch(ctx, fetch.Request{Index: i, URL: url, Dir: workspace}, collector)
			return nil
		})
	}
	_ = g.Wait()

	return collector.Results()
}

// normalizePages converts every fetched image to the canonical format,
// dropping pages that are absent or fail to convert.
func (m *Manager) normalizePages(ctx context.Context, job model.ChapterJob, results []model.FetchResult, log *zap.Logger) []string {
	images := make([]string, 0, len(results))
	for _, r := range results {
		if !r.Present() {
			log.Warn("page missing", zap.Int("index", r.Index), zap.String("url", r.URL), zap.Error(r.Err))
			m.progress(ProgressEvent{Message: fmt.Sprintf("Page %d of %s is missing: %v", r.Index+1, job.Label(), r.Err), Level: LevelWarning})
			continue
		}

		path, err := m.normalizer.Normalize(ctx, r.Path)
		if err != nil {
			log.Warn("page conversion failed", zap.Int("index", r.Index), zap.Error(err))
			m.progress(ProgressEvent{Message: fmt.Sprintf("Page %d of %s could not be converted: %v", r.Index+1, job.Label(), err), Level: LevelWarning})
			continue
		}
		images = append(images, path)
	}
	return images
}

// composeWithRetry builds the chapter document, retrying failed or timed out
// attempts with exponential backoff. Every attempt writes into its own
// directory under workspace.
func (m *Manager) composeWithRetry(ctx context.Context, job model.ChapterJob, images []string, workspace string, inflight *sync.WaitGroup, log *zap.Logger) (int, string, error) {
	meta := pdf.Metadata{
		Title:    job.DocumentTitle(),
		Author:   job.Author(),
		Subject:  job.Subject(),
		Keywords: job.Keywords(),
		Creator:  m.settings.Producer,
	}

	var (
		attempt int
		pages   int
		docPath string
	)
	err := retry.Do(
		func() error {
			dir := filepath.Join(workspace, fmt.Sprintf("attempt-%d", attempt))
			attempt++
			if err := os.Mkdir(dir, 0755); err != nil {
				return err
			}

			out := filepath.Join(dir, job.FileName())
			n, err := m.composeOnce(ctx, images, out, meta, inflight)
			if err == nil {
				pages, docPath = n, out
				return nil
			}
			if ctx.Err() != nil || errors.Is(err, pdf.ErrNoPages) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Attempts(uint(m.settings.MaxPDFRetries)+1),
		retry.Delay(m.settings.BackoffBase()),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("document creation failed", zap.Uint("try", n+1), zap.Error(err))
			if int(n) < m.settings.MaxPDFRetries {
				m.progress(ProgressEvent{
					Message: fmt.Sprintf("Retrying PDF creation for %s (%d/%d): %v", job.Label(), n+1, m.settings.MaxPDFRetries, err),
					Level:   LevelWarning,
				})
			}
		}),
	)
	return pages, docPath, err
}

// composeOnce runs one compositor attempt bounded by the PDF creation
// timeout. On timeout the attempt's context is cancelled and the call
// returns at once; the abandoned goroutine is tracked by inflight.
func (m *Manager) composeOnce(ctx context.Context, images []string, out string, meta pdf.Metadata, inflight *sync.WaitGroup) (int, error) {
	timeout := m.settings.PDFTimeout()
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pages int
		err   error
	}
	done := make(chan result, 1)

	inflight.Add(1)
	go func() {
		defer inflight.Done()
		n, err := m.composer.Compose(actx, images, out, meta)
		done <- result{n, err}
	}()

	select {
	case r := <-done:
		return r.pages, r.err
	case <-actx.Done():
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w after %s", ErrComposeTimeout, timeout)
	}
}

func (m *Manager) fail(log *zap.Logger, job model.ChapterJob, reason string) model.ChapterOutcome {
	log.Warn("chapter failed", zap.String("reason", reason))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Failed %s: %s", job.Label(), reason), Level: LevelError})
	return model.Failed(job, reason)
}

func (m *Manager) addTotal(jobs []model.ChapterJob, pending []int) {
	var units int64
	for _, i := range pending {
		units += int64(len(jobs[i].ImageURLs)) + 1
	}
	atomic.AddInt64(&m.totalUnits, units)
}

func (m *Manager) advance(n int64) {
	atomic.AddInt64(&m.completedUnits, n)
}

func (m *Manager) setCancel(cancel context.CancelFunc) {
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
}

// progress delivers event to the callback. Page events come from fetch
// goroutines, so calls are serialized.
func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress == nil {
		return
	}
	m.progressMu.Lock()
	defer m.progressMu.Unlock()
	event.Completed, event.Total = m.GetProgress()
	m.onProgress(event)
}

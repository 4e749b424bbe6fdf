package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "github.com/handiism/manga-downloader/internal/http"
	ioutils "github.com/handiism/manga-downloader/internal/io"
	"github.com/handiism/manga-downloader/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newFetcher(opts Options) *Fetcher {
	return NewFetcher(httpclient.NewClient(2*time.Second, "test"), ioutils.NewImageService(), opts, nil)
}

func fetchOne(t *testing.T, f *Fetcher, ctx context.Context, url string) model.FetchResult {
	t.Helper()
	c := NewCollector(1)
	f.Fetch(ctx, Request{Index: 0, URL: url, Dir: t.TempDir()}, c)
	results := c.Results()
	require.Len(t, results, 1)
	return results[0]
}

func TestFetcher_Success(t *testing.T) {
	body := pngBytes(t, 32, 48)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	r := fetchOne(t, newFetcher(Options{MaxRetries: 3, BaseDelay: time.Millisecond}), context.Background(), srv.URL+"/data/1.png")

	require.True(t, r.Present(), "err: %v", r.Err)
	assert.Equal(t, "image_000.png", filepath.Base(r.Path))
	assert.NoError(t, r.Err)
}

func TestFetcher_RetryBudget(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var mu sync.Mutex
	var delays []time.Duration
	f := newFetcher(Options{
		MaxRetries: 3,
		BaseDelay:  2 * time.Millisecond,
		OnBackoff: func(attempt uint, d time.Duration, err error) {
			mu.Lock()
			delays = append(delays, d)
			mu.Unlock()
		},
	})

	r := fetchOne(t, f, context.Background(), srv.URL)

	assert.False(t, r.Present())
	assert.Error(t, r.Err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	require.Len(t, delays, 3)
	for i := 1; i < len(delays); i++ {
		assert.Greater(t, delays[i], delays[i-1])
	}
}

func TestFetcher_RecoversAfterTransientFailure(t *testing.T) {
	body := pngBytes(t, 20, 20)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	r := fetchOne(t, newFetcher(Options{MaxRetries: 3, BaseDelay: time.Millisecond}), context.Background(), srv.URL)

	assert.True(t, r.Present())
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetcher_ClientErrorsAreRetried(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusGone} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(code)
			}))
			defer srv.Close()

			r := fetchOne(t, newFetcher(Options{MaxRetries: 3, BaseDelay: time.Millisecond}), context.Background(), srv.URL)

			assert.False(t, r.Present())
			var statusErr *httpclient.StatusError
			require.ErrorAs(t, r.Err, &statusErr)
			assert.Equal(t, code, statusErr.StatusCode)
			assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
		})
	}
}

func TestFetcher_OnSavedReportsSize(t *testing.T) {
	body := pngBytes(t, 24, 24)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var (
		gotIndex = -1
		gotSize  int64
	)
	f := newFetcher(Options{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		OnSaved: func(index int, size int64) {
			gotIndex, gotSize = index, size
		},
	})

	c := NewCollector(1)
	f.Fetch(context.Background(), Request{Index: 2, URL: srv.URL + "/p.png", Dir: t.TempDir()}, c)

	require.True(t, c.Results()[0].Present())
	assert.Equal(t, 2, gotIndex)
	assert.Equal(t, int64(len(body)), gotSize)
}

func TestFetcher_OnSavedSkippedForRejectedImage(t *testing.T) {
	tiny := pngBytes(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(tiny)
	}))
	defer srv.Close()

	called := false
	f := newFetcher(Options{OnSaved: func(int, int64) { called = true }})

	r := fetchOne(t, f, context.Background(), srv.URL)

	assert.False(t, r.Present())
	assert.False(t, called)
}

func TestFetcher_QualityFailureNotRetried(t *testing.T) {
	var hits int32
	tiny := pngBytes(t, 5, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write(tiny)
	}))
	defer srv.Close()

	r := fetchOne(t, newFetcher(Options{MaxRetries: 3, BaseDelay: time.Millisecond}), context.Background(), srv.URL)

	assert.False(t, r.Present())
	assert.ErrorIs(t, r.Err, ioutils.ErrImageTooSmall)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetcher_CancelledBeforeStart(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := fetchOne(t, newFetcher(Options{MaxRetries: 3, BaseDelay: time.Millisecond}), ctx, srv.URL)

	assert.False(t, r.Present())
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestFetcher_CancelledDuringBackoff(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := newFetcher(Options{
		MaxRetries: 5,
		BaseDelay:  time.Hour,
		OnBackoff:  func(uint, time.Duration, error) { cancel() },
	})

	r := fetchOne(t, f, ctx, srv.URL)

	assert.False(t, r.Present())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCollector_OrdersByIndex(t *testing.T) {
	c := NewCollector(5)
	var wg sync.WaitGroup
	for _, i := range []int{4, 1, 3, 0, 2} {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			time.Sleep(time.Duration(5-i) * time.Millisecond)
			c.Add(model.FetchResult{Index: i, URL: fmt.Sprintf("u%d", i)})
		}(i)
	}
	wg.Wait()

	results := c.Results()
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
}

func TestRequest_Path(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/data/h/1.jpg", "image_007.jpg"},
		{"https://cdn.example.com/data/h/1.WEBP?token=x", "image_007.webp"},
		{"https://cdn.example.com/page", "image_007.img"},
		{"https://cdn.example.com/page.php", "image_007.img"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := Request{Index: 7, URL: tt.url, Dir: "/ws"}
			assert.Equal(t, filepath.Join("/ws", tt.want), r.Path())
		})
	}
}

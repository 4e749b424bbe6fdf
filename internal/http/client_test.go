package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_DownloadFile(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, "MangaDownloader")
	dest := filepath.Join(t.TempDir(), "page.jpg")

	var lastWritten int64
	err := client.DownloadFile(context.Background(), srv.URL, dest, func(written, total int64) {
		lastWritten = written
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, int64(len(payload)), lastWritten)
	assert.Equal(t, "MangaDownloader", gotUA)
}

func TestClient_DownloadFile_AcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "page.jpg")
	require.NoError(t, NewClient(time.Second, "").DownloadFile(context.Background(), srv.URL, dest, nil))
	assert.FileExists(t, dest)
}

func TestClient_DownloadFile_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "page.jpg")
	err := NewClient(time.Second, "").DownloadFile(context.Background(), srv.URL, dest, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.NoFileExists(t, dest)
}

func TestClient_DownloadFile_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	dest := filepath.Join(t.TempDir(), "page.jpg")
	err := NewClient(50*time.Millisecond, "").DownloadFile(context.Background(), srv.URL, dest, nil)

	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.NoFileExists(t, dest)
}

func TestClient_DownloadFile_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClient(time.Second, "").DownloadFile(ctx, srv.URL, filepath.Join(t.TempDir(), "p"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

package ioutils

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-file.pdf", "normal-file.pdf"},
		{"file:with:colons.pdf", "file_with_colons.pdf"},
		{"file<with>brackets.pdf", "file_with_brackets.pdf"},
		{"file/with\\slashes.pdf", "file_with_slashes.pdf"},
		{"file|with|pipes.pdf", "file_with_pipes.pdf"},
		{"file?with*wildcards.pdf", "file_with_wildcards.pdf"},
		{"file\"with\"quotes.pdf", "file_with_quotes.pdf"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"trailing spaces   ", "trailing spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.input))
		})
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.pdf")
	dst := filepath.Join(dir, "out", "b.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.7"), 0644))
	require.NoError(t, EnsureDir(filepath.Dir(dst)))

	require.NoError(t, MoveFile(context.Background(), src, dst))

	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
}

func TestMoveFile_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new.pdf")
	dst := filepath.Join(dir, "old.pdf")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	require.NoError(t, MoveFile(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCopyFile_Cancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CopyFile(ctx, src, filepath.Join(dir, "b"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "b"))
}

func writeTestImage(t *testing.T, path string, w, h int, encode func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))
}

func encodePNG(f *os.File, img image.Image) error { return png.Encode(f, img) }

func encodeJPEG(f *os.File, img image.Image) error { return jpeg.Encode(f, img, nil) }

func TestImageService_CheckQuality(t *testing.T) {
	dir := t.TempDir()
	svc := NewImageService()

	good := filepath.Join(dir, "good.jpg")
	writeTestImage(t, good, 40, 60, encodeJPEG)
	assert.NoError(t, svc.CheckQuality(good))

	tiny := filepath.Join(dir, "tiny.png")
	writeTestImage(t, tiny, 9, 40, encodePNG)
	assert.True(t, errors.Is(svc.CheckQuality(tiny), ErrImageTooSmall))

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("<html>not found</html>"), 0644))
	assert.Error(t, svc.CheckQuality(garbage))

	// Header intact, body cut off
	truncated := filepath.Join(dir, "truncated.png")
	writeTestImage(t, truncated, 64, 64, encodePNG)
	data, err := os.ReadFile(truncated)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(truncated, data[:len(data)/2], 0644))
	assert.Error(t, svc.CheckQuality(truncated))
}

func TestImageService_Normalize(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := NewImageService()

	t.Run("png is returned unchanged", func(t *testing.T) {
		path := filepath.Join(dir, "page.png")
		writeTestImage(t, path, 20, 20, encodePNG)

		out, err := svc.Normalize(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, path, out)
	})

	t.Run("jpeg is converted alongside", func(t *testing.T) {
		path := filepath.Join(dir, "cover.jpg")
		writeTestImage(t, path, 20, 30, encodeJPEG)

		out, err := svc.Normalize(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "cover.png"), out)
		assert.FileExists(t, path)

		w, h, format, err := svc.Dimensions(out)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, 20, w)
		assert.Equal(t, 30, h)
	})

	t.Run("format detected from content", func(t *testing.T) {
		path := filepath.Join(dir, "mislabelled.png")
		writeTestImage(t, path, 20, 20, encodeJPEG)

		out, err := svc.Normalize(ctx, path)
		require.NoError(t, err)
		assert.NotEqual(t, path, out)

		_, _, format, err := svc.Dimensions(out)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("unreadable input", func(t *testing.T) {
		path := filepath.Join(dir, "broken.img")
		require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))

		_, err := svc.Normalize(ctx, path)
		assert.Error(t, err)
	})
}

func TestImageService_RenderPage(t *testing.T) {
	dir := t.TempDir()
	svc := NewImageService()

	src := filepath.Join(dir, "page.png")
	writeTestImage(t, src, 50, 100, encodePNG)
	dst := filepath.Join(dir, "page.jpg")

	// Target overflows the canvas vertically
	err := svc.RenderPage(context.Background(), src, dst, image.Pt(100, 150), image.Rect(0, -25, 100, 175))
	require.NoError(t, err)

	w, h, format, err := svc.Dimensions(dst)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, w)
	assert.Equal(t, 150, h)
}

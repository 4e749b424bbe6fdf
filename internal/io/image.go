package ioutils

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // BMP decoder registration
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// CanonicalFormat is the raster format every page is normalized to.
const CanonicalFormat = "png"

// ErrImageTooSmall is returned by CheckQuality for images below the minimum size.
var ErrImageTooSmall = errors.New("image below minimum dimensions")

// ImageService provides image processing operations for chapter pages.
//
// ImageService is used to:
//   - Reject corrupt or undersized downloads before they reach a document
//   - Convert pages to the canonical PNG format
//   - Render a page image onto a fixed-size raster for the PDF compositor
//
// Formats are always detected from content, never from the file extension.
// JPEG, PNG, GIF, WebP, BMP and TIFF inputs are understood.
//
// Example usage:
//
//	svc := NewImageService()
//
//	// Validate a freshly downloaded page
//	if err := svc.CheckQuality("/tmp/ws/image_000.jpg"); err != nil {
//	    // treat as absent
//	}
//
//	// Convert to PNG
//	pngPath, err := svc.Normalize(ctx, "/tmp/ws/image_000.jpg")
//	// pngPath == "/tmp/ws/image_000.png"
type ImageService struct {
	// MinWidth and MinHeight are the smallest acceptable page dimensions in pixels.
	MinWidth  int
	MinHeight int

	// JPEGQuality is used when rendering pages for the compositor.
	JPEGQuality int
}

// NewImageService creates a new ImageService that rejects images smaller
// than 10x10 pixels.
func NewImageService() *ImageService {
	return &ImageService{
		MinWidth:    10,
		MinHeight:   10,
		JPEGQuality: 90,
	}
}

// Dimensions reports the pixel size and detected format of the image at path
// by reading only its header.
//
// Example:
//
//	w, h, format, err := svc.Dimensions("/tmp/ws/image_003.img")
//	// 1200, 1700, "webp", nil
func (s *ImageService) Dimensions(path string) (width, height int, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, "", fmt.Errorf("detecting image format of %s: %w", filepath.Base(path), err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// CheckQuality verifies that path holds a complete, decodable image of at
// least MinWidth x MinHeight pixels.
//
// The whole image is decoded, so truncated files are caught even when their
// header is intact.
//
// Returns an error wrapping ErrImageTooSmall for undersized images, or the
// decoder error for unreadable ones.
func (s *ImageService) CheckQuality(path string) error {
	img, _, err := decodeFile(path)
	if err != nil {
		return err
	}

	b := img.Bounds()
	if b.Dx() < s.MinWidth || b.Dy() < s.MinHeight {
		return fmt.Errorf("%w: %dx%d", ErrImageTooSmall, b.Dx(), b.Dy())
	}
	return nil
}

// Normalize converts the image at path to PNG.
//
// The source format is detected from the file content. A file that is
// already PNG is returned unchanged without copying. Anything else is
// decoded and written next to the original as "<name>.png"; the original is
// left in place.
//
// Parameters:
//   - ctx: Context for cancellation, checked before decoding
//   - path: Downloaded image file
//
// Returns the path of the canonical file.
//
// Example:
//
//	out, err := svc.Normalize(ctx, "/tmp/ws/image_002.webp")
//	// out == "/tmp/ws/image_002.png"
func (s *ImageService) Normalize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, _, format, err := s.Dimensions(path)
	if err != nil {
		return "", err
	}
	if format == CanonicalFormat {
		return path, nil
	}

	img, _, err := decodeFile(path)
	if err != nil {
		return "", err
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + "." + CanonicalFormat
	if out == path {
		// Mislabelled file: keep the original untouched
		out = strings.TrimSuffix(path, filepath.Ext(path)) + "_normalized." + CanonicalFormat
	}

	if err := writeImage(out, func(f *os.File) error { return png.Encode(f, img) }); err != nil {
		return "", fmt.Errorf("converting %s from %s: %w", filepath.Base(path), format, err)
	}
	return out, nil
}

// RenderPage draws the image at src onto a white canvas and writes it to dst
// as JPEG.
//
// target is the rectangle, in canvas pixels, the image is scaled into. It may
// extend past the canvas, in which case the overflow is cropped. The
// Catmull-Rom algorithm is used for high-quality resizing.
//
// Example:
//
//	// Letter page at 144 DPI with a portrait image filling the width
//	canvas := image.Pt(1224, 1584)
//	target := image.Rect(0, -42, 1224, 1626)
//	err := svc.RenderPage(ctx, "/tmp/ws/image_000.png", "/tmp/ws/attempt-0/page_000.jpg", canvas, target)
func (s *ImageService) RenderPage(ctx context.Context, src, dst string, canvas image.Point, target image.Rectangle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, _, err := decodeFile(src)
	if err != nil {
		return err
	}

	page := image.NewRGBA(image.Rectangle{Max: canvas})
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(page, target, img, img.Bounds(), draw.Over, nil)

	quality := s.JPEGQuality
	if quality <= 0 {
		quality = 90
	}
	return writeImage(dst, func(f *os.File) error {
		return jpeg.Encode(f, page, &jpeg.Options{Quality: quality})
	})
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, format, nil
}

// writeImage creates path, runs encode and removes the file if anything fails.
func writeImage(path string, encode func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return encode(f)
}

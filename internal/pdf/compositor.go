package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// pointsPerInch is the PDF user space unit.
const pointsPerInch = 72.0

// PageRenderer rasterizes page images.
//
// *ioutils.ImageService satisfies this interface.
type PageRenderer interface {
	Dimensions(path string) (width, height int, format string, err error)
	RenderPage(ctx context.Context, src, dst string, canvas image.Point, target image.Rectangle) error
}

// Metadata is written into the document information dictionary.
//
// Keywords is stored verbatim, so its order is kept.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
}

func (m Metadata) properties() map[string]string {
	props := make(map[string]string, 5)
	for k, v := range map[string]string{
		"Title":    m.Title,
		"Author":   m.Author,
		"Subject":  m.Subject,
		"Keywords": m.Keywords,
		"Creator":  m.Creator,
	} {
		if v != "" {
			props[k] = v
		}
	}
	return props
}

// Options configures page geometry.
type Options struct {
	// PageWidth and PageHeight are the page size in points.
	PageWidth  float64
	PageHeight float64

	// DPI is the resolution pages are rasterized at.
	DPI int
}

// Compositor assembles page images into a single PDF.
//
// Each image is fitted to the page (see Fit), rendered onto a page-sized
// raster and imported as one full-bleed page. A second pass rewrites the
// document with its metadata.
//
// Example:
//
//	c := pdf.NewCompositor(ioutils.NewImageService(), pdf.Options{
//	    PageWidth:  612,
//	    PageHeight: 792,
//	    DPI:        144,
//	}, logger)
//
//	pages, err := c.Compose(ctx, []string{"/ws/image_000.png", "/ws/image_001.png"}, "/ws/out.pdf", pdf.Metadata{
//	    Title:   "Blue Period - Chapter 12",
//	    Creator: "MangaDownloader",
//	})
type Compositor struct {
	images PageRenderer
	opts   Options
	logger *zap.Logger
}

// NewCompositor creates a Compositor. A nil logger disables logging.
func NewCompositor(images PageRenderer, opts Options, logger *zap.Logger) *Compositor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DPI <= 0 {
		opts.DPI = 144
	}
	return &Compositor{
		images: images,
		opts:   opts,
		logger: logger,
	}
}

// Compose writes a PDF to outPath with one page per image in the given
// order and returns the number of pages written.
//
// Images that cannot be read are skipped and logged. If none can be placed,
// ErrNoPages is returned and outPath is not created. The context is checked
// between pages; an existing file at outPath is replaced.
//
// Intermediate files are kept in a directory next to outPath and removed
// before Compose returns.
func (c *Compositor) Compose(ctx context.Context, images []string, outPath string, meta Metadata) (int, error) {
	scratch, err := os.MkdirTemp(filepath.Dir(outPath), "compose-*")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(scratch)

	pages, err := c.renderPages(ctx, images, scratch)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, ErrNoPages
	}

	conf := newConfiguration()
	raw := filepath.Join(scratch, "pages.pdf")

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: c.opts.PageWidth, Height: c.opts.PageHeight}
	imp.Pos = types.Full

	if err := api.ImportImagesFile(pages, raw, imp, conf); err != nil {
		return 0, fmt.Errorf("importing pages: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := c.writeMetadata(raw, outPath, meta, conf); err != nil {
		return 0, err
	}

	n, err := api.PageCountFile(outPath)
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	if n != len(pages) {
		return 0, fmt.Errorf("document has %d pages, expected %d", n, len(pages))
	}
	return n, nil
}

// renderPages rasterizes each image into dir and returns the rendered files
// in input order.
func (c *Compositor) renderPages(ctx context.Context, images []string, dir string) ([]string, error) {
	scale := float64(c.opts.DPI) / pointsPerInch
	canvas := image.Pt(
		int(math.Round(c.opts.PageWidth*scale)),
		int(math.Round(c.opts.PageHeight*scale)),
	)

	pages := make([]string, 0, len(images))
	for i, src := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		w, h, _, err := c.images.Dimensions(src)
		if err != nil {
			c.logger.Warn("skipping unreadable page", zap.String("path", src), zap.Error(err))
			continue
		}

		target := Fit(w, h, c.opts.PageWidth, c.opts.PageHeight).Rect(scale)
		dst := filepath.Join(dir, fmt.Sprintf("page_%03d.jpg", i))
		if err := c.images.RenderPage(ctx, src, dst, canvas, target); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn("skipping page that failed to render", zap.String("path", src), zap.Error(err))
			continue
		}
		pages = append(pages, dst)
	}
	return pages, nil
}

// writeMetadata copies src to dst, setting the information dictionary on the
// way. pdfcpu stamps its own Producer on every write, so the application tag
// travels in Creator.
func (c *Compositor) writeMetadata(src, dst string, meta Metadata, conf *model.Configuration) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	props := meta.properties()
	if len(props) == 0 {
		return os.Rename(src, dst)
	}
	if err := api.AddPropertiesFile(src, dst, props, conf); err != nil {
		return fmt.Errorf("writing document properties: %w", err)
	}
	return nil
}

// Package pdf assembles chapter pages into PDF documents and verifies them.
//
// The package is built on pdfcpu and contains three pieces:
//   - Fit, the page layout rule
//   - Compositor, which renders and imports pages and writes metadata
//   - Verifier, which checks a finished document before it is published
//
// # Layout
//
// Every page has the same configured size. An image keeps its aspect ratio,
// is centred, and is scaled by height when it is landscape and by width
// otherwise. The part that overflows the page is cropped.
//
// # Composing
//
//	c := pdf.NewCompositor(ioutils.NewImageService(), pdf.Options{
//	    PageWidth: 595.276, PageHeight: 841.89, DPI: 144,
//	}, logger)
//	pages, err := c.Compose(ctx, images, "/ws/out.pdf", meta)
//	if errors.Is(err, pdf.ErrNoPages) {
//	    // nothing usable
//	}
//
// Compose has no timeout of its own; callers bound it with the context.
//
// # Verification
//
//	err := pdf.NewVerifier().Verify("/ws/out.pdf")
//	var ie *pdf.IntegrityError
//	if errors.As(err, &ie) {
//	    fmt.Println(ie.Check) // header, trailer or structure
//	}
package pdf

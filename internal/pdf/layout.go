package pdf

import (
	"image"
	"math"
)

// Placement is the rectangle an image occupies on a page, in the page's own
// units with the origin at the top-left corner. X and Y are negative when
// the scaled image overflows the page and is cropped.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// Fit scales an image of imgW x imgH onto a pageW x pageH page preserving its
// aspect ratio and centres it.
//
// Landscape images (wider than tall) are scaled to the page height;
// portrait and square images are scaled to the page width. Whatever extends
// past the page edge is cropped.
//
// Example:
//
//	// 800x1200 portrait page on Letter
//	p := Fit(800, 1200, 612, 792)
//	// p.Width == 612, p.Height == 918, p.Y == -63
func Fit(imgW, imgH int, pageW, pageH float64) Placement {
	if imgW <= 0 || imgH <= 0 {
		return Placement{Width: pageW, Height: pageH}
	}

	aspect := float64(imgW) / float64(imgH)

	var w, h float64
	if aspect > 1 {
		h = pageH
		w = pageH * aspect
	} else {
		w = pageW
		h = pageW / aspect
	}

	return Placement{
		X:      (pageW - w) / 2,
		Y:      (pageH - h) / 2,
		Width:  w,
		Height: h,
	}
}

// Rect converts p to a pixel rectangle at scale pixels per unit.
func (p Placement) Rect(scale float64) image.Rectangle {
	x0 := int(math.Round(p.X * scale))
	y0 := int(math.Round(p.Y * scale))
	x1 := int(math.Round((p.X + p.Width) * scale))
	y1 := int(math.Round((p.Y + p.Height) * scale))
	return image.Rect(x0, y0, x1, y1)
}

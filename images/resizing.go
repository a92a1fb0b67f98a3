package images

import (
	"image"

	"github.com/nfnt/resize"
)

// Downscale shrinks img so that its longer side is at most maxSide, preserving the aspect ratio.
//
// Arguments:
//   - img: The source image.
//   - maxSide: The longest allowed side in pixels. Zero or negative disables downscaling.
//
// Returns:
//   - image.Image: The downscaled image, or img itself when no downscaling is needed.
//   - float64: The horizontal factor that maps coordinates on the returned image back to img (>= 1).
//   - float64: The vertical factor. It differs from the horizontal one when rounding the shorter
//     side changes its ratio.
//
// @example
// small, fx, fy := Downscale(img, 1280)
// predictions.Scale(fx, fy)
func Downscale(img image.Image, maxSide int) (image.Image, float64, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img, 1, 1
	}

	var newW, newH uint
	if w >= h {
		newW = uint(maxSide)
	} else {
		newH = uint(maxSide)
	}
	// A zero dimension lets resize preserve the aspect ratio.
	resized := resize.Resize(newW, newH, img, resize.Lanczos3)
	rb := resized.Bounds()
	return resized, float64(w) / float64(rb.Dx()), float64(h) / float64(rb.Dy())
}

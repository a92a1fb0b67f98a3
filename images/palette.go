package images

import (
	"image/color"

	"github.com/nvr-ai/shroomguard/inference"
)

// FillAlpha is the opacity of polygon fills on the overlay layer.
const FillAlpha = 128

// CategoryColor returns the opaque base colour for a category. Unknown labels are drawn in black.
func CategoryColor(c inference.Category) color.NRGBA {
	switch c {
	case inference.CategoryReady:
		return color.NRGBA{R: 72, G: 211, B: 138, A: 255}
	case inference.CategoryNotReady:
		return color.NRGBA{R: 255, G: 215, B: 0, A: 255}
	case inference.CategoryOverdue:
		return color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	default:
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	}
}

// FillColor returns the translucent fill used inside a category's polygons.
func FillColor(c inference.Category) color.NRGBA {
	fill := CategoryColor(c)
	fill.A = FillAlpha
	return fill
}

// LabelColor is the colour of the text drawn at each polygon.
var LabelColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Package images - Polygon rasterisation on a transparent drawing layer.
package images

import (
	"image"
	"image/color"
	"math"

	"github.com/nvr-ai/shroomguard/inference"
	"gocv.io/x/gocv"
)

// maxCoordinate bounds the vertex coordinates handed to OpenCV, which rasterises in fixed point.
const maxCoordinate = 1 << 20

// Layer is a fully transparent 4-channel canvas that polygons and labels are drawn onto before it is
// composited over the source image. Drawing replaces pixels; nothing is blended on the layer itself.
//
// @example
// layer := NewLayer(640, 480)
// defer layer.Close()
// layer.FillPolygon(poly, FillColor(inference.CategoryReady))
// overlay := layer.NRGBA()
type Layer struct {
	mat    gocv.Mat
	bounds image.Rectangle
}

// NewLayer creates a transparent layer of the given size.
func NewLayer(width, height int) *Layer {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC4)
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return &Layer{mat: mat, bounds: image.Rect(0, 0, width, height)}
}

// Close releases the native memory of the layer.
func (l *Layer) Close() error {
	return l.mat.Close()
}

// PolygonFromPoints converts prediction points to pixel vertices, rounding to the nearest pixel.
// Coordinates beyond ±maxCoordinate are clamped.
func PolygonFromPoints(points []inference.Point) []image.Point {
	poly := make([]image.Point, len(points))
	for i, p := range points {
		poly[i] = image.Pt(clampCoordinate(p.X), clampCoordinate(p.Y))
	}
	return poly
}

func clampCoordinate(v float64) int {
	return int(math.Max(-maxCoordinate, math.Min(maxCoordinate, math.Round(v))))
}

// FillPolygon sets every pixel inside poly, edges included, to c. A later fill overwrites an
// earlier one where they overlap. Fewer than three vertices fill nothing.
//
// Arguments:
//   - poly: The polygon vertices, implicitly closed. Vertices may lie outside the layer.
//   - c: The fill colour.
func (l *Layer) FillPolygon(poly []image.Point, c color.NRGBA) {
	if len(poly) < 3 || l.bounds.Empty() {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer pv.Close()
	gocv.FillPoly(&l.mat, pv, toScalarColor(c))
}

// StrokePolygon draws the closed outline of poly, one pixel wide. A single vertex draws one pixel.
func (l *Layer) StrokePolygon(poly []image.Point, c color.NRGBA) {
	if len(poly) == 0 || l.bounds.Empty() {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer pv.Close()
	gocv.Polylines(&l.mat, pv, true, toScalarColor(c), 1)
}

// NRGBA copies the layer into a non-premultiplied image ready for compositing.
func (l *Layer) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(l.bounds)
	if l.bounds.Empty() {
		return out
	}
	// OpenCV stores the channels as B, G, R, A.
	data := l.mat.ToBytes()
	for i := 0; i+3 < len(out.Pix) && i+3 < len(data); i += 4 {
		out.Pix[i+0] = data[i+2]
		out.Pix[i+1] = data[i+1]
		out.Pix[i+2] = data[i+0]
		out.Pix[i+3] = data[i+3]
	}
	return out
}

// toScalarColor passes the straight, non-premultiplied channel values through unchanged; gocv maps
// them onto the B, G, R, A channels of the layer.
func toScalarColor(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

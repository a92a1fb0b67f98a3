package images

import (
	"image"

	"github.com/nvr-ai/shroomguard/common"
	"github.com/nvr-ai/shroomguard/inference"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// LabelOffset is how far above the first polygon point the label's top edge is placed.
const LabelOffset = 20

// Label text settings. Lines are drawn without anti-aliasing.
const (
	labelFont      = gocv.FontHersheyPlain
	labelScale     = 1.0
	labelThickness = 1
)

// Overlay draws every prediction onto a transparent layer and composites it over src.
//
// Predictions are drawn in input order, so later ones cover earlier ones where they overlap. Each
// polygon is filled with its category's translucent colour, outlined in the opaque colour, and
// labelled in white with the text's top-left corner LabelOffset pixels above the first point.
// Nothing is clamped; parts that fall outside the image are simply not visible.
//
// Arguments:
//   - src: The original image. It is not modified.
//   - set: The predictions to draw. A nil or empty set yields an unmodified RGBA copy of src.
//
// Returns:
//   - *image.RGBA: The composited image, same size as src, origin at (0, 0).
//   - error: A *common.ImageProcessingError if any prediction lacks a class or points. No partial
//     overlay is produced.
//
// @example
// img, _ := DecodeFile("/tmp/uploads/3f2c.jpg")
// annotated, err := Overlay(img, predictions)
func Overlay(src image.Image, set *inference.PredictionSet) (*image.RGBA, error) {
	if set != nil {
		for i := range set.Predictions {
			if err := set.Predictions[i].Validate(); err != nil {
				return nil, common.NewImageProcessingError(err, "prediction %d", i)
			}
		}
	}

	base := ToRGBA(src)
	if set.Len() == 0 || base.Bounds().Empty() {
		return base, nil
	}

	layer := NewLayer(base.Bounds().Dx(), base.Bounds().Dy())
	defer layer.Close()
	for i := range set.Predictions {
		drawPrediction(layer, &set.Predictions[i])
	}

	draw.Draw(base, base.Bounds(), layer.NRGBA(), image.Point{}, draw.Over)
	return base, nil
}

func drawPrediction(layer *Layer, p *inference.Prediction) {
	category := p.Category()
	poly := PolygonFromPoints(p.Points)

	layer.FillPolygon(poly, FillColor(category))
	layer.StrokePolygon(poly, CategoryColor(category))
	layer.DrawLabel(p.Label(), poly[0].X, poly[0].Y-LabelOffset)
}

// labelSize returns the width and height of the text box for text.
func labelSize(text string) image.Point {
	return gocv.GetTextSize(text, labelFont, labelScale, labelThickness)
}

// DrawLabel draws text in LabelColor with the top-left corner of its box at (x, y). Parts outside
// the layer are clipped.
func (l *Layer) DrawLabel(text string, x, y int) {
	if text == "" || l.bounds.Empty() {
		return
	}
	size := labelSize(text)
	// PutText anchors at the bottom-left of the text.
	gocv.PutText(&l.mat, text, image.Pt(x, y+size.Y), labelFont, labelScale, toScalarColor(LabelColor), labelThickness)
}

// RenderFile opens the image at srcPath, draws the predictions and returns the result as PNG.
//
// Returns:
//   - *Image: The PNG-encoded overlay.
//   - error: A *common.ImageProcessingError if the file cannot be decoded, a prediction is
//     malformed, or encoding fails.
func RenderFile(srcPath string, set *inference.PredictionSet) (*Image, error) {
	src, err := DecodeFile(srcPath)
	if err != nil {
		return nil, err
	}
	out, err := Overlay(src, set)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodePNG(out)
	if err != nil {
		return nil, common.NewImageProcessingError(err, "save result")
	}
	return encoded, nil
}

// Package inference - Detection data model and the aggregation over it.
package inference

import (
	"fmt"
	"image"
	"math"

	"github.com/pkg/errors"
)

// Point is a polygon vertex in source image pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Prediction is one detected object instance as returned by the detection service.
type Prediction struct {
	// Class is the category label. It is a pointer so that a missing field can be told apart from
	// any label value.
	Class *string `json:"class"`
	// Points is the ordered polygon boundary.
	Points []Point `json:"points"`
	// Confidence is the service's score for the detection.
	Confidence float64 `json:"confidence,omitempty"`
	// ClassID is the service's numeric class index.
	ClassID int `json:"class_id,omitempty"`
	// DetectionID is the service's identifier for the detection.
	DetectionID string `json:"detection_id,omitempty"`
	// X, Y, Width, Height describe the service's bounding box (centre and size).
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Label returns the category label, or "" when the class field is missing.
func (p *Prediction) Label() string {
	if p.Class == nil {
		return ""
	}
	return *p.Class
}

// Category returns the enumerated category of the label.
func (p *Prediction) Category() Category {
	return ParseCategory(p.Label())
}

// Validate reports whether the prediction carries the fields required to draw it: a class and at
// least one point to anchor the label.
func (p *Prediction) Validate() error {
	if p.Class == nil {
		return errors.New("missing class")
	}
	if len(p.Points) == 0 {
		return errors.Errorf("class %q: missing points", *p.Class)
	}
	return nil
}

// Bounds returns the integer rectangle enclosing all points. The rectangle is canonical and may
// extend beyond the image.
func (p *Prediction) Bounds() image.Rectangle {
	if len(p.Points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := p.Points[0].X, p.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Points[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))).Canon()
}

func (p *Prediction) String() string {
	return fmt.Sprintf("Object %s (confidence %f): %d points, bounds %v",
		p.Label(), p.Confidence, len(p.Points), p.Bounds())
}

// ImageInfo is the image size the service reports having processed.
type ImageInfo struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PredictionSet is the full response payload for one image. Only Predictions is consumed by the
// overlay and the aggregation.
type PredictionSet struct {
	Predictions []Prediction `json:"predictions"`
	Image       *ImageInfo   `json:"image,omitempty"`
	Time        float64      `json:"time,omitempty"`
	InferenceID string       `json:"inference_id,omitempty"`
}

// Len returns the number of predictions; a nil set has none.
func (s *PredictionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Predictions)
}

// Scale multiplies horizontal coordinates by fx and vertical ones by fy. It is used to map
// predictions made on a downscaled payload back to source image pixels.
func (s *PredictionSet) Scale(fx, fy float64) {
	if s == nil || (fx == 1 && fy == 1) {
		return
	}
	for i := range s.Predictions {
		p := &s.Predictions[i]
		for j := range p.Points {
			p.Points[j].X *= fx
			p.Points[j].Y *= fy
		}
		p.X *= fx
		p.Y *= fy
		p.Width *= fx
		p.Height *= fy
	}
	if s.Image != nil {
		s.Image.Width *= fx
		s.Image.Height *= fy
	}
}

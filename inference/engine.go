package inference

import (
	"context"
	"io"
)

// Detector defines the interface for object detection backends. Implementations send the image
// read from r, named name, and return the parsed predictions.
type Detector interface {
	Detect(ctx context.Context, name string, r io.Reader) (*PredictionSet, error)
}

// Package test - End-to-end fixtures: generated images and a mock detection service.
package test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/nvr-ai/shroomguard/inference"
)

// MockImageGenerator creates deterministic test images.
//
// @example
// gen := NewMockImageGenerator(100, 100)
// data, err := gen.GeneratePNG()
type MockImageGenerator struct {
	width  int
	height int
	seed   int64
}

// NewMockImageGenerator creates a new image generator with specified dimensions.
//
// Arguments:
//   - width: Image width in pixels.
//   - height: Image height in pixels.
//
// Returns:
//   - *MockImageGenerator: A configured generator.
func NewMockImageGenerator(width, height int) *MockImageGenerator {
	return &MockImageGenerator{
		width:  width,
		height: height,
		seed:   42, // Deterministic seed for reproducibility.
	}
}

// GenerateImage creates a soil-coloured background with light noise.
func (g *MockImageGenerator) GenerateImage() *image.RGBA {
	rng := rand.New(rand.NewSource(g.seed))
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			n := uint8(rng.Intn(16))
			img.SetRGBA(x, y, color.RGBA{R: 110 + n, G: 80 + n, B: 50 + n, A: 255})
		}
	}
	return img
}

// GeneratePNG returns GenerateImage encoded as PNG.
func (g *MockImageGenerator) GeneratePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, g.GenerateImage()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateJPEG returns GenerateImage encoded as JPEG.
func (g *MockImageGenerator) GenerateJPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, g.GenerateImage(), &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectionRequest is what the mock detection service saw for one call.
type DetectionRequest struct {
	APIKey   string
	Filename string
	Body     []byte
}

// MockDetectionService is an httptest server answering like the hosted detection endpoint.
type MockDetectionService struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	response any
	requests []DetectionRequest
}

// NewMockDetectionService starts a service that answers every request with status and the JSON
// encoding of response. Close it when done.
//
// Arguments:
//   - status: HTTP status to answer with.
//   - response: Value encoded as the JSON body.
//
// Returns:
//   - *MockDetectionService: The running service.
//
// @example
// svc := NewMockDetectionService(http.StatusOK, PredictionsResponse(...))
// defer svc.Close()
func NewMockDetectionService(status int, response any) *MockDetectionService {
	svc := &MockDetectionService{status: status, response: response}
	svc.Server = httptest.NewServer(http.HandlerFunc(svc.handle))
	return svc
}

func (s *MockDetectionService) handle(w http.ResponseWriter, r *http.Request) {
	req := DetectionRequest{APIKey: r.URL.Query().Get("api_key")}
	if file, header, err := r.FormFile("file"); err == nil {
		req.Filename = header.Filename
		req.Body, _ = io.ReadAll(file)
		file.Close()
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status, response := s.status, s.response
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// Requests returns a copy of the requests received so far.
func (s *MockDetectionService) Requests() []DetectionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DetectionRequest(nil), s.requests...)
}

// Triangle returns a prediction with a triangular polygon whose top-left corner is (x, y).
func Triangle(class string, x, y float64) inference.Prediction {
	return inference.Prediction{
		Class:      &class,
		Confidence: 0.9,
		Points: []inference.Point{
			{X: x, Y: y},
			{X: x + 30, Y: y},
			{X: x + 15, Y: y + 30},
		},
	}
}

// PredictionsResponse wraps predictions the way the detection service does.
func PredictionsResponse(predictions ...inference.Prediction) *inference.PredictionSet {
	if predictions == nil {
		predictions = []inference.Prediction{}
	}
	return &inference.PredictionSet{Predictions: predictions}
}

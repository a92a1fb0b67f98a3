// Package controller - The upload pipeline that routes an image through detection and rendering.
package controller

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvr-ai/shroomguard/common"
	"github.com/nvr-ai/shroomguard/images"
	"github.com/nvr-ai/shroomguard/inference"
	"github.com/nvr-ai/shroomguard/profiler"
	"github.com/nvr-ai/shroomguard/scratch"
	"github.com/sirupsen/logrus"
)

// Stage names recorded by the profiler.
const (
	StageSave     = "save"
	StageDetect   = "detect"
	StageRender   = "render"
	StageReadBack = "read_back"
	StageTotal    = "total"
)

// Result is the response body of a successful upload.
type Result struct {
	OriginalImage  string `json:"original_image"`
	ProcessedImage string `json:"processed_image"`
	Ready          int    `json:"ready"`
	NotReady       int    `json:"notReady"`
	Overdue        int    `json:"overdue"`
	TotalMushrooms int    `json:"totalMushrooms"`

	// Counts holds every observed label, including unknown ones.
	Counts inference.ClassCounts `json:"-"`
	// Token identifies the scratch files written for the request.
	Token string `json:"-"`
}

// Config tunes the pipeline.
type Config struct {
	// MaxSide downscales the image sent to the detector so its longer side is at most this many
	// pixels. Zero sends the original bytes.
	MaxSide int
}

// Controller runs uploads through save, detect, render, aggregate and read back.
type Controller struct {
	Detector inference.Detector
	Store    *scratch.Store
	Profiler *profiler.Profiler
	Config   Config
	Log      logrus.FieldLogger
}

// New creates a Controller. A nil profiler or logger is replaced by a private one.
//
// Arguments:
//   - detector: The detection backend.
//   - store: The scratch storage for uploads and results.
//   - cfg: Pipeline tuning.
//   - prof: Stage timing collector.
//   - log: Logger for per-stage debug output.
//
// Returns:
//   - *Controller: The controller.
func New(detector inference.Detector, store *scratch.Store, cfg Config, prof *profiler.Profiler, log logrus.FieldLogger) *Controller {
	if prof == nil {
		prof = profiler.New(0)
	}
	if log == nil {
		log = common.NewNopLogger()
	}
	return &Controller{Detector: detector, Store: store, Profiler: prof, Config: cfg, Log: log}
}

// Process handles one upload end to end. Any failure aborts the request; no partial result is
// returned.
//
// Arguments:
//   - ctx: Bounds the outbound detection call.
//   - filename: The client supplied file name. Must not be empty.
//   - body: The upload bytes.
//
// Returns:
//   - *Result: Both images base64 encoded and the category counts.
//   - error: A *common.ValidationError, *common.StorageError, *common.TransportError or
//     *common.ImageProcessingError.
//
// @example
// result, err := ctl.Process(r.Context(), header.Filename, file)
func (c *Controller) Process(ctx context.Context, filename string, body io.Reader) (*Result, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, common.NewValidationError("Empty filename")
	}
	defer c.Profiler.StartOperation(StageTotal)()

	token := scratch.NewToken()
	log := c.Log.WithFields(logrus.Fields{"token": token, "filename": filename})

	done := c.Profiler.StartOperation(StageSave)
	entry, err := c.Store.SaveUpload(token, filename, body)
	if err != nil {
		return nil, err
	}
	log.WithField("duration", done()).WithField("path", entry.UploadPath).Debug("upload saved")

	done = c.Profiler.StartOperation(StageDetect)
	set, err := c.detect(ctx, entry)
	if err != nil {
		return nil, err
	}
	log.WithField("duration", done()).WithField("predictions", set.Len()).Debug("detection complete")
	for i := range set.Predictions {
		log.WithField("index", i).Debug(set.Predictions[i].String())
	}

	done = c.Profiler.StartOperation(StageRender)
	rendered, err := images.RenderFile(entry.UploadPath, set)
	if err != nil {
		return nil, err
	}
	if err := c.Store.WriteResult(entry, rendered.Data); err != nil {
		return nil, err
	}
	log.WithField("duration", done()).WithField("path", entry.ResultPath).Debug("overlay rendered")

	counts := inference.CountClasses(set)

	done = c.Profiler.StartOperation(StageReadBack)
	original, err := c.Store.ReadUpload(entry)
	if err != nil {
		return nil, err
	}
	processed, err := c.Store.ReadResult(entry)
	if err != nil {
		return nil, err
	}
	log.WithField("duration", done()).Debug("results read back")

	return &Result{
		OriginalImage:  images.EncodeBase64(original),
		ProcessedImage: images.EncodeBase64(processed),
		Ready:          counts.Get(inference.LabelReady),
		NotReady:       counts.Get(inference.LabelNotReady),
		Overdue:        counts.Get(inference.LabelOverdue),
		TotalMushrooms: counts.Total(),
		Counts:         counts,
		Token:          token,
	}, nil
}

// detect sends the saved upload to the detector. When downscaling is enabled and the image is
// larger than the limit, a smaller PNG is sent and the returned points are mapped back to the
// original pixel grid.
func (c *Controller) detect(ctx context.Context, entry *scratch.Entry) (*inference.PredictionSet, error) {
	name := filepath.Base(entry.Name)

	if c.Config.MaxSide > 0 {
		img, err := images.DecodeFile(entry.UploadPath)
		if err != nil {
			return nil, err
		}
		small, fx, fy := images.Downscale(img, c.Config.MaxSide)
		if fx > 1 || fy > 1 {
			encoded, err := images.EncodePNG(small)
			if err != nil {
				return nil, common.NewImageProcessingError(err, "downscale %s", name)
			}
			set, err := c.Detector.Detect(ctx, strings.TrimSuffix(name, filepath.Ext(name))+images.FormatPNG.Extension(), bytes.NewReader(encoded.Data))
			if err != nil {
				return nil, err
			}
			set.Scale(fx, fy)
			return set, nil
		}
	}

	f, err := os.Open(entry.UploadPath)
	if err != nil {
		return nil, common.NewStorageError("open upload", entry.UploadPath, err)
	}
	defer f.Close()
	return c.Detector.Detect(ctx, name, f)
}

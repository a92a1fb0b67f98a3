package test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nvr-ai/shroomguard/common"
	"github.com/nvr-ai/shroomguard/controller"
	"github.com/nvr-ai/shroomguard/images"
	"github.com/nvr-ai/shroomguard/inference"
	"github.com/nvr-ai/shroomguard/inference/roboflow"
	"github.com/nvr-ai/shroomguard/profiler"
	"github.com/nvr-ai/shroomguard/scratch"
	"github.com/nvr-ai/shroomguard/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

// uploadResponse mirrors the JSON body of POST /upload.
type uploadResponse struct {
	OriginalImage  string `json:"original_image"`
	ProcessedImage string `json:"processed_image"`
	Ready          int    `json:"ready"`
	NotReady       int    `json:"notReady"`
	Overdue        int    `json:"overdue"`
	TotalMushrooms int    `json:"totalMushrooms"`
	Error          string `json:"error"`
}

// newStack wires the real client, storage, pipeline and routes against the mock service.
func newStack(t *testing.T, svc *MockDetectionService) *httptest.Server {
	t.Helper()

	cfg := common.NewConfig(map[string]any{
		"detection": map[string]any{
			"endpoint": svc.URL + "/mushroom-w7ucu/13",
			"api_key":  testAPIKey,
			"timeout":  "5s",
		},
		"storage": map[string]any{
			"upload_dir": t.TempDir(),
			"result_dir": t.TempDir(),
		},
	})

	detectionCfg := roboflow.DefaultConfig()
	detectionCfg.Endpoint = cfg.GetString("detection.endpoint")
	detectionCfg.APIKey = cfg.GetString("detection.api_key")
	detectionCfg.Timeout = cfg.GetDurationOrDefault("detection.timeout", time.Minute)
	client, err := roboflow.NewClient(detectionCfg)
	require.NoError(t, err)

	store, err := scratch.NewStore(cfg.GetString("storage.upload_dir"), cfg.GetString("storage.result_dir"))
	require.NoError(t, err)

	log := common.NewNopLogger()
	ctl := controller.New(client, store, controller.Config{}, profiler.New(0), log)
	srv, err := server.New(ctl, 0, log)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func upload(t *testing.T, ts *httptest.Server, field, filename string, data []byte) (int, uploadResponse) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestUploadEndToEnd(t *testing.T) {
	svc := NewMockDetectionService(http.StatusOK, PredictionsResponse(
		Triangle(inference.LabelReady, 10, 10),
		Triangle(inference.LabelOverdue, 60, 50),
	))
	defer svc.Close()
	ts := newStack(t, svc)

	original, err := NewMockImageGenerator(100, 100).GeneratePNG()
	require.NoError(t, err)

	status, out := upload(t, ts, "file", "tray.png", original)
	require.Equal(t, http.StatusOK, status, out.Error)

	assert.Equal(t, 1, out.Ready)
	assert.Equal(t, 0, out.NotReady)
	assert.Equal(t, 1, out.Overdue)
	assert.Equal(t, 2, out.TotalMushrooms)

	// The detection service got the original bytes and the credential.
	requests := svc.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, testAPIKey, requests[0].APIKey)
	assert.Equal(t, "tray.png", requests[0].Filename)
	assert.Equal(t, original, requests[0].Body)

	gotOriginal, err := images.DecodeBase64(out.OriginalImage)
	require.NoError(t, err)
	assert.Equal(t, original, gotOriginal)

	processedBytes, err := images.DecodeBase64(out.ProcessedImage)
	require.NoError(t, err)
	processed, err := png.Decode(bytes.NewReader(processedBytes))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), processed.Bounds())

	// Inside the READY triangle the soil colour is tinted green.
	r, g, _, _ := processed.At(25, 20).RGBA()
	assert.Greater(t, g>>8, uint32(120))
	assert.Less(t, r>>8, uint32(110))

	// Inside the OVERDUE triangle it is tinted red.
	r, g, _, _ = processed.At(75, 60).RGBA()
	assert.Greater(t, r>>8, uint32(170))
	assert.Less(t, g>>8, uint32(70))

	// Outside both polygons the image is untouched.
	want := NewMockImageGenerator(100, 100).GenerateImage().RGBAAt(5, 90)
	r, g, b, a := processed.At(5, 90).RGBA()
	assert.Equal(t, []uint32{uint32(want.R), uint32(want.G), uint32(want.B), 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})
}

func TestUploadEndToEnd_JPEG(t *testing.T) {
	svc := NewMockDetectionService(http.StatusOK, PredictionsResponse(
		Triangle(inference.LabelNotReady, 20, 20),
		Triangle("UNLABELLED", 50, 50),
	))
	defer svc.Close()
	ts := newStack(t, svc)

	original, err := NewMockImageGenerator(120, 80).GenerateJPEG()
	require.NoError(t, err)

	status, out := upload(t, ts, "file", "tray.jpg", original)
	require.Equal(t, http.StatusOK, status, out.Error)
	assert.Equal(t, 0, out.Ready)
	assert.Equal(t, 1, out.NotReady)
	assert.Equal(t, 0, out.Overdue)
	assert.Equal(t, 2, out.TotalMushrooms)
}

func TestUploadEndToEnd_MissingPoints(t *testing.T) {
	ready := inference.LabelReady
	svc := NewMockDetectionService(http.StatusOK, PredictionsResponse(
		Triangle(inference.LabelOverdue, 10, 10),
		inference.Prediction{Class: &ready},
	))
	defer svc.Close()
	ts := newStack(t, svc)

	original, err := NewMockImageGenerator(100, 100).GeneratePNG()
	require.NoError(t, err)

	status, out := upload(t, ts, "file", "tray.png", original)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotEmpty(t, out.Error)
	assert.Empty(t, out.ProcessedImage)
}

func TestUploadEndToEnd_DetectionServiceError(t *testing.T) {
	svc := NewMockDetectionService(http.StatusForbidden, map[string]string{"message": "invalid api key"})
	defer svc.Close()
	ts := newStack(t, svc)

	original, err := NewMockImageGenerator(10, 10).GeneratePNG()
	require.NoError(t, err)

	status, out := upload(t, ts, "file", "tray.png", original)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, out.Error, "403")
	assert.NotContains(t, out.Error, testAPIKey)
}

func TestUploadEndToEnd_MissingFile(t *testing.T) {
	svc := NewMockDetectionService(http.StatusOK, PredictionsResponse())
	defer svc.Close()
	ts := newStack(t, svc)

	status, out := upload(t, ts, "image", "tray.png", []byte("data"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No file uploaded", out.Error)
	assert.Empty(t, svc.Requests())
}

package common

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("No file uploaded"), http.StatusBadRequest},
		{"wrapped validation", errors.Wrap(NewValidationError("Empty filename"), "upload"), http.StatusBadRequest},
		{"transport", NewTransportError("detect", 503, errors.New("unavailable")), http.StatusInternalServerError},
		{"image processing", NewImageProcessingError(errors.New("no points"), "prediction %d", 0), http.StatusInternalServerError},
		{"storage", NewStorageError("write", "/tmp/x", errors.New("disk full")), http.StatusInternalServerError},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestErrorKindsAreDistinguishable(t *testing.T) {
	cause := errors.New("connection refused")
	err := errors.Wrap(NewTransportError("post image", 0, cause), "detect")

	var transport *TransportError
	assert.True(t, errors.As(err, &transport))
	assert.Equal(t, "post image", transport.Op)
	assert.Equal(t, cause, errors.Cause(err))

	var processing *ImageProcessingError
	assert.False(t, errors.As(err, &processing))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "detect: status 502: bad gateway",
		NewTransportError("detect", 502, errors.New("bad gateway")).Error())
	assert.Equal(t, "detect: timeout", NewTransportError("detect", 0, errors.New("timeout")).Error())
	assert.Equal(t, "decode image: unexpected EOF",
		NewImageProcessingError(errors.New("unexpected EOF"), "decode image").Error())
}

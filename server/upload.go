package server

import (
	"net/http"

	"github.com/nvr-ai/shroomguard/common"
	"github.com/pkg/errors"
)

// Upload accepts a multipart upload in the "file" field and responds with both images and the
// category counts. Every failure is reported as {"error": message}.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.fail(w, common.NewValidationError("No file uploaded"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part sent without a file name is parsed as a plain form value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			s.fail(w, common.NewValidationError("Empty filename"))
			return
		}
		s.fail(w, common.NewValidationError("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.fail(w, common.NewValidationError("Empty filename"))
		return
	}

	result, err := s.ctl.Process(r.Context(), header.Filename, file)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// fail is the single place a pipeline error becomes a response.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := common.StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("upload failed")
	} else {
		s.log.WithError(err).Debug("upload rejected")
	}
	respondError(w, err.Error(), status)
}

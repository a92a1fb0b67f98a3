// Package server - HTTP surface of the service.
package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/nvr-ai/shroomguard/controller"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultMaxUploadBytes bounds the request body of an upload.
const DefaultMaxUploadBytes int64 = 32 << 20

// multipartMemory is how much of a multipart form is held in memory before spilling to disk.
const multipartMemory = 8 << 20

//go:embed templates/*.html
var templateFS embed.FS

// Server serves the upload API and the informational pages.
type Server struct {
	ctl            *controller.Controller
	log            logrus.FieldLogger
	maxUploadBytes int64
	pages          *template.Template
}

// New creates a Server.
//
// Arguments:
//   - ctl: The upload pipeline.
//   - maxUploadBytes: Upper bound for an upload request body. Values below one use the default.
//   - log: Request logger.
//
// Returns:
//   - *Server: The server.
//   - error: If the embedded page templates fail to parse.
func New(ctl *controller.Controller, maxUploadBytes int64, log logrus.FieldLogger) (*Server, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	if maxUploadBytes < 1 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{ctl: ctl, log: log, maxUploadBytes: maxUploadBytes, pages: pages}, nil
}

// Routes returns the handler for every endpoint, wrapped in CORS and request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.Upload)
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /history", s.History)
	mux.HandleFunc("GET /health", s.Health)
	mux.HandleFunc("GET /stats", s.Stats)
	return s.logRequests(enableCORS(mux))
}

// Health reports that the process is serving.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Stats reports per-stage pipeline timings and runtime figures.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, s.ctl.Profiler.Snapshot(), http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

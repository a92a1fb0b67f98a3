package server

import (
	"bytes"
	"net/http"
)

// page is the data every page template receives.
type page struct {
	Title  string
	Active string
}

// Home renders the upload page.
func (s *Server) Home(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "index.html", page{Title: "Scan", Active: "home"})
}

// History renders the scan history page. Scans are kept in the browser's local storage.
func (s *Server) History(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "history.html", page{Title: "History", Active: "history"})
}

func (s *Server) render(w http.ResponseWriter, name string, data page) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.WithError(err).WithField("template", name).Error("render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"cardscan/internal/contact"
	"cardscan/internal/imgio"
	"cardscan/internal/pipeline"
	"cardscan/internal/version"
)

type scanResponse struct {
	Contacts []contact.Record `json:"contacts"`
	Count    int              `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleScan accepts a multipart upload with an "image" file and optional
// "lang" and "enrich" form fields and returns the extracted contacts.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) int {
	if r.Method != http.MethodPost {
		return s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return s.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return s.writeError(w, http.StatusBadRequest, "missing image file")
	}
	defer file.Close()
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		return s.writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
	}

	opts := pipeline.Options{Lang: r.FormValue("lang")}
	if v := r.FormValue("enrich"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return s.writeError(w, http.StatusBadRequest, "invalid enrich value: "+v)
		}
		opts.Enrich = &enabled
	}

	start := time.Now()
	records, err := s.processor.ProcessImageWithOptions(data, opts)
	scanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var decodeErr *imgio.DecodeError
		if errors.As(err, &decodeErr) {
			return s.writeError(w, http.StatusBadRequest, err.Error())
		}
		s.logger.Error("scan failed", "file", header.Filename, "error", err)
		return s.writeError(w, http.StatusInternalServerError, "processing failed")
	}
	contactsExtracted.Observe(float64(len(records)))

	s.logger.Info("scan complete",
		"file", header.Filename, "size", header.Size, "contacts", len(records))
	return s.writeJSON(w, http.StatusOK, scanResponse{Contacts: records, Count: len(records)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) int {
	if r.Method != http.MethodGet {
		return s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("writing response", "error", err)
	}
	return status
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) int {
	return s.writeJSON(w, status, errorResponse{Error: msg})
}

package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"faceswapd/internal/domain"
	"faceswapd/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 64 << 20

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type swapRequest struct {
	TargetImage string `json:"targetImage"`
	SwapImage   string `json:"swapImage"`
	ManyFaces   bool   `json:"many_faces"`
	Enhancer    *bool  `json:"enhancer"`
}

type swapResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type statusResponse struct {
	JobID     string          `json:"job_id"`
	Status    string          `json:"status"`
	ResultURL string          `json:"result_url,omitempty"`
	Error     *model.JobError `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	ref, err := s.uploads.Put(r.Context(), data, ext)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error().Err(err).Msg("upload failed")
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:  "File uploaded successfully",
		Filename: filepath.Base(ref),
		Path:     ref,
	})
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// The enhancer flag falls back to process config when the client does
	// not set it; the resolved value is frozen into the job.
	enhancer := s.enhancerDefault
	if req.Enhancer != nil {
		enhancer = *req.Enhancer
	}
	opts := model.Options{ManyFaces: req.ManyFaces, Enhancer: enhancer}

	jobID, err := s.dispatchUC.Submit(r.Context(), req.SwapImage, req.TargetImage, opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrQueueUnavailable):
			http.Error(w, "Queue unavailable", http.StatusServiceUnavailable)
		default:
			s.log.Error().Err(err).Msg("submit failed")
			http.Error(w, "Failed to create swap job", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, swapResponse{JobID: jobID, Status: string(model.JobStateQueued)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	job, err := s.statusUC.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Str("job_id", jobID).Msg("status lookup failed")
		http.Error(w, "Failed to look up job", http.StatusInternalServerError)
		return
	}

	resp := statusResponse{JobID: job.ID, Status: string(job.State)}
	if job.State == model.JobStateSucceeded {
		resp.ResultURL = "/output/" + job.ResultRef
	}
	if job.State == model.JobStateFailed {
		resp.Error = job.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

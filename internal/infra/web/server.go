package web

import (
	"net/http"

	"faceswapd/internal/domain/ports/repository"
	"faceswapd/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the submission API over HTTP: artifact upload, job
// submission, status polling and static serving of completed results.
type Server struct {
	dispatchUC      usecase.DispatchUseCase
	statusUC        usecase.StatusUseCase
	uploads         repository.ArtifactStore
	outputRoot      string
	enhancerDefault bool
	log             *zerolog.Logger
}

func NewServer(
	dispatchUC usecase.DispatchUseCase,
	statusUC usecase.StatusUseCase,
	uploads repository.ArtifactStore,
	outputRoot string,
	enhancerDefault bool,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		dispatchUC:      dispatchUC,
		statusUC:        statusUC,
		uploads:         uploads,
		outputRoot:      outputRoot,
		enhancerDefault: enhancerDefault,
		log:             logger,
	}
}

// Router builds the chi router for all public endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Put("/upload", s.handleUpload)
	r.Post("/swap", s.handleSwap)
	r.Get("/swap/status/{job_id}", s.handleStatus)

	// Completed results are plain files; clients fetch them directly.
	fileServer := http.StripPrefix("/output/", http.FileServer(http.Dir(s.outputRoot)))
	r.Get("/output/*", fileServer.ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

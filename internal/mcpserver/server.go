package mcpserver

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/remote"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/response"
)

// Server is one per-program execution microservice. It mirrors the local
// executor's spawn/timeout/discovery behavior behind the HTTP wire contract,
// so callers cannot tell a remote run from a local one.
type Server struct {
	logger    *slog.Logger
	def       *programs.Definition
	runner    executor.Runner
	outputDir string
	port      int
}

func New(logger *slog.Logger, def *programs.Definition, runner executor.Runner, outputDir string, port int) *Server {
	return &Server{
		logger:    logger,
		def:       def,
		runner:    runner,
		outputDir: outputDir,
		port:      port,
	}
}

func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.AllowAll().Handler)

	mux.Get("/health", s.healthHandler)
	mux.Post("/execute", s.executeHandler)

	return mux
}

// healthHandler reports ok whenever the service is up. It deliberately does
// not probe the tool binary: a missing tool shows up as a spawn failure on
// /execute, not as an unhealthy service.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.def.ID + "-mcp",
		"port":    s.port,
	})
}

func (s *Server) executeHandler(w http.ResponseWriter, r *http.Request) {
	var req remote.ExecuteRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		response.Raw(w, http.StatusBadRequest, remote.ExecuteResponse{
			Success: false,
			Error:   "Code is required",
		})
		return
	}

	s.logger.Info("execute request received",
		"program", s.def.ID,
		"code_bytes", len(req.Code))

	res := s.runner.Run(r.Context(), executor.Request{
		ProgramID:  s.def.ID,
		SourceCode: req.Code,
		OutputDir:  s.outputDir,
		StartedAt:  time.Now(),
		Timeout:    s.def.Timeout,
		Options:    req.Options,
	})

	// Failures still answer 200; only the success flag distinguishes them.
	if !res.Success {
		response.Raw(w, http.StatusOK, remote.ExecuteResponse{
			Success: false,
			Error:   res.ErrorMessage,
			Stdout:  res.Stdout,
			Stderr:  res.Stderr,
		})
		return
	}

	response.Raw(w, http.StatusOK, remote.ExecuteResponse{
		Success:    true,
		OutputFile: filepath.Base(res.OutputFilePath),
		OutputPath: res.OutputFilePath,
		URL:        res.OutputURL,
		Stdout:     res.Stdout,
	})
}

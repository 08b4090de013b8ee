package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/runningwild/kfinder/pkg/dataset"
	"github.com/runningwild/kfinder/pkg/engine"
)

// FitRequest is the body of POST /fit.
type FitRequest struct {
	Data   dataset.Matrix `json:"data"`
	Params engine.Params  `json:"params"`
}

// Server runs fits on behalf of a remote cluster engine.
type Server struct {
	eng    engine.Engine
	logger *slog.Logger
}

func NewServer(eng engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		eng:    eng,
		logger: logger,
	}
}

// Handler returns the agent's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/fit", s.handleFit)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("kfinder agent listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req FitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid body: %v", err), http.StatusBadRequest)
		return
	}

	m, err := s.eng.Fit(r.Context(), req.Data, req.Params)
	if err != nil {
		s.logger.Error("fit failed", "k", req.Params.K, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidK) || errors.Is(err, engine.ErrTooFewSamples) ||
			errors.Is(err, dataset.ErrEmpty) || errors.Is(err, dataset.ErrRagged) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, fmt.Sprintf("Fit failed: %v", err), status)
		return
	}
	s.logger.Debug("fit served", "k", m.K, "inertia", m.Inertia, "rows", req.Data.Rows())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

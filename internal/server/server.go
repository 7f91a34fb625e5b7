package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/model"
	"github.com/go-chi/chi/v5"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
	maxBodyBytes    = 64 * 1024
)

// Function is what the server exposes under /functions/{id}.
type Function interface {
	ID() string
	Execute(ctx context.Context, args ...string) (string, error)
}

// Server is the remote invocation surface of registered functions.
type Server struct {
	cfg        *config.ServerCfg
	logger     *slog.Logger
	functions  map[string]Function
	validator  *argsValidator
	httpServer *http.Server
	listener   net.Listener
	URL        string
}

func New(cfg *config.ServerCfg, logger *slog.Logger, functions ...Function) (*Server, error) {
	validator, err := newArgsValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		functions: make(map[string]Function, len(functions)),
		validator: validator,
	}
	for _, fn := range functions {
		s.functions[fn.ID()] = fn
	}
	return s, nil
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Post("/functions/{id}", s.handleExecute)

	return r
}

// Start binds the listener synchronously and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.URL = "http://" + ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "err", err)
		}
	}()

	s.logger.Info("HTTP server started", "addr", s.URL)
	return nil
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, NewOKResponse())
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fn, ok := s.functions[id]
	if !ok {
		s.writeJSON(w, http.StatusNotFound, NewErrorResponse("unknown function "+id))
		return
	}

	args, err := s.validator.decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}

	doc, err := fn.Execute(r.Context(), args...)
	if err != nil {
		s.writeJSON(w, statusOf(err), NewErrorResponse(err.Error()))
		return
	}

	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write([]byte(doc)); err != nil {
		s.logger.Warn("Failed to write function result", "function", id, "err", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrNoSuchDiskStore):
		return http.StatusNotFound
	case errors.Is(err, model.ErrMissingScope), errors.Is(err, model.ErrInvalidScope):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("Error encoding response", "err", err)
	}
}

// Package web serves exports over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/zmdl/internal/config"
	"github.com/Faultbox/zmdl/internal/exporter"
	"github.com/Faultbox/zmdl/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP export service.
type Server struct {
	cfg  *config.Config
	opts exporter.Options
}

// New creates a server from the loaded configuration.
func New(cfg *config.Config) *Server {
	return &Server{cfg: cfg, opts: exporter.OptionsFromConfig(cfg)}
}

// Router returns the routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/export", s.handleExportScene).Methods(http.MethodPost)
	r.HandleFunc("/export/gltf", s.handleExportGLTF).Methods(http.MethodPost)
	return r
}

// Handler returns the routes wrapped in panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	access := zap.NewStdLog(logger.Log).Writer()
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	return handlers.LoggingHandler(access, h)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting export server", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("stopping export server")
		return srv.Shutdown(shutdownCtx)
	}
}

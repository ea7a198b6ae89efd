// Package server exposes the coverage engine and the link budget calculators
// over HTTP under /api.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/wiless/coverage"
	"github.com/wiless/coverage/deployment"
	"github.com/wiless/coverage/metrics"
)

// Server routes coverage requests to a coverage.Service. Grid fields missing
// from a request take the server's default grid.
type Server struct {
	service    *coverage.Service
	recomputer *coverage.Recomputer
	grid       deployment.GridConfig
	log        log.FieldLogger
	router     *mux.Router

	batch  *validator
	single *validator
}

// New builds the router. collector may be nil.
func New(service *coverage.Service, grid deployment.GridConfig, logger log.FieldLogger, collector *metrics.Collector) *Server {
	if service == nil {
		service = coverage.NewService()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Server{
		service:    service,
		recomputer: coverage.NewRecomputer(service),
		grid:       grid,
		log:        logger,
		router:     mux.NewRouter(),
		batch:      mustValidator(batchSchema),
		single:     mustValidator(singleSchema),
	}
	if collector != nil {
		s.router.Use(collector.Middleware)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/coverage", s.handleCoverage).Methods(http.MethodPost)
	api.HandleFunc("/towers/{id}/coverage", s.handleTowerCoverage).Methods(http.MethodPost)
	api.HandleFunc("/coverage/fspl", s.handleFSPL).Methods(http.MethodPost)
	api.HandleFunc("/coverage/okumura_hata", s.handleOkumuraHata).Methods(http.MethodPost)
	api.HandleFunc("/coverage/antenna_gain", s.handleAntennaGain).Methods(http.MethodPost)
	api.HandleFunc("/coverage/full_link_budget", s.handleFullLinkBudget).Methods(http.MethodPost)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP server starting on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Warn("HTTP server shutdown")
		return err
	}
	s.log.Info("HTTP server stopped")
	return nil
}

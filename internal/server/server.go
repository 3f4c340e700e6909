// Package server exposes the dashboard and attachment HTTP API.
//
// Dashboard endpoints are pure functions over the session snapshot held by
// internal/state; the attachment endpoints are delegated to the attachments
// handler and stay isolated, so a storage outage never affects the ledger
// views.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vendor-ledger-service/internal/attachments"
	"vendor-ledger-service/internal/state"
	"vendor-ledger-service/pkg/logger"

	"github.com/gorilla/mux"
)

// Config holds the HTTP server settings. MaxUploadBytes caps a spreadsheet
// upload; monthly exports run a few MB, so anything near the default limit is
// a wrong file.
type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DefaultConfig returns the server defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  50 << 20,
	}
}

// Validate checks the server configuration.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid upload limit: %d", c.MaxUploadBytes)
	}
	return nil
}

// Server wires the routes and owns the http.Server lifecycle.
type Server struct {
	config      *Config
	store       *state.Store
	attachments *attachments.Handler
	httpServer  *http.Server
	log         logger.Logger
}

// New creates a Server. attachHandler may be nil when no attachment store is
// configured; the panel routes are then simply absent.
func New(config *Config, store *state.Store, attachHandler *attachments.Handler) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Server{
		config:      config,
		store:       store,
		attachments: attachHandler,
		log:         logger.WithComponent("server"),
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/ledger", s.handleLoadLedger).Methods(http.MethodPost)
	r.HandleFunc("/api/creditnotes", s.handleLoadCreditNotes).Methods(http.MethodPost)
	r.HandleFunc("/api/invoices/query", s.handleQueryInvoices).Methods(http.MethodPost)
	r.HandleFunc("/api/vendors/top", s.handleTopVendors).Methods(http.MethodPost)
	r.HandleFunc("/api/filters/options", s.handleFilterOptions).Methods(http.MethodGet)
	r.HandleFunc("/api/emails", s.handleEmails).Methods(http.MethodGet)

	if s.attachments != nil {
		s.attachments.Register(r)
	}
}

// Run starts the server and blocks until the context is cancelled, then
// drains in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

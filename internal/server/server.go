// Package server is the portal gateway: it holds each browser's API session
// server-side, serves the page data the portal views need and reports API
// failures back as toasts and login redirects.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/curatime/portal/internal/apiclient"
	"github.com/curatime/portal/internal/config"
	"github.com/curatime/portal/internal/metrics"
	"github.com/curatime/portal/internal/navigation"
	"github.com/curatime/portal/internal/notify"
	"github.com/curatime/portal/internal/portal"
	"github.com/curatime/portal/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   zerolog.Logger
	backend  storage.Backend
	store    *storage.Store
	janitor  *storage.Janitor
	metrics  *metrics.Metrics
	client   *apiclient.Client
	notifier notify.Notifier
	guard    navigation.Guard

	doctors      *portal.DoctorService
	appointments *portal.AppointmentService
	admin        *portal.AdminService

	version string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	backend, err := storage.Open(cfg.Database.URL, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	var sealer *storage.Sealer
	if cfg.Database.StorageKey != "" {
		sealer, err = storage.NewSealer(cfg.Database.StorageKey)
		if err != nil {
			backend.Close()
			return nil, err
		}
	} else {
		zlog.Warn().Msg("STORAGE_KEY not set - session tokens are stored unencrypted")
	}

	m := metrics.New()

	janitor, err := storage.NewJanitor(backend, cfg.Session.PurgeSchedule, zlog)
	if err != nil {
		backend.Close()
		return nil, err
	}
	janitor.OnPurge = m.SessionsPurged

	// Notifications go to the request's collector and end up in the response
	notifier := m.Notifier(notify.ContextNotifier{
		Fallback: notify.LogNotifier{Logger: zlog.With().Str("component", "notify").Logger()},
	})

	client := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithNotifier(notifier),
		apiclient.WithObserver(m),
		apiclient.WithLogger(zlog),
	)

	server := &Server{
		config:       cfg,
		logger:       zlog,
		backend:      backend,
		store:        storage.NewStore(backend, sealer, zlog),
		janitor:      janitor,
		metrics:      m,
		client:       client,
		notifier:     notifier,
		doctors:      portal.NewDoctorService(client),
		appointments: portal.NewAppointmentService(client),
		admin:        portal.NewAdminService(client),
		version:      version,
	}

	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// The session cookie needs credentialed CORS, so origins are listed explicitly
	if len(s.config.Server.CORSOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept", currentPathHeader},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Everything below runs inside a browser session
	browser := s.router.Group("")
	browser.Use(s.browserSessionMiddleware())
	{
		browser.POST("/session/login", s.login)
		browser.POST("/session/logout", s.logout)
		browser.GET("/session/me", s.me)

		views := browser.Group("/view")
		{
			views.GET("/doctor/dashboard", s.doctorDashboard)
			views.GET("/doctor/profile", s.doctorProfile)
			views.PUT("/doctor/profile", s.updateDoctorProfile)
			views.POST("/doctor/profile/photo", s.uploadDoctorPhoto)

			views.GET("/appointments", s.listAppointments)
			views.DELETE("/appointments/:id", s.cancelAppointment)

			views.GET("/admin/dashboard", s.adminDashboard)
		}

		browser.Any("/proxy/*path", s.proxy)
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "curatime-portal",
		"version":   s.version,
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the session storage.
func (s *Server) Close() error {
	return s.backend.Close()
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	addr := s.config.Server.ListenAddr

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.janitor.Start()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("api", s.client.BaseURL()).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.shutdownBackground()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.janitor.Stop(shutdownCtx)
	s.closeStorage()

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

func (s *Server) shutdownBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.janitor.Stop(ctx)
	s.closeStorage()
}

// closeStorage flushes WAL writes on SQLite.
func (s *Server) closeStorage() {
	s.logger.Info().Msg("Closing session storage...")
	if err := s.backend.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing session storage")
		return
	}
	s.logger.Info().Msg("Session storage closed successfully")
}

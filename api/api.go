package api

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gatewaybridge/bridge"
	"github.com/papercomputeco/gatewaybridge/pkg/metrics"
)

// StatusProvider reports the current bridge status.
type StatusProvider interface {
	Status() bridge.Status
}

// Server is the status API server for a running bridge.
type Server struct {
	config Config
	bridge StatusProvider
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The metrics are served on /metrics.
func NewServer(config Config, b StatusProvider, m *metrics.Metrics, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		bridge: b,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/status", s.handleStatus)
	app.Get("/ready", s.handleReady)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Test sends req through the server's router without a listener.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req)
}

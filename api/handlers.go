package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gatewaybridge/bridge"
)

// ErrorResponse is the body of a non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus returns the bridge's connection status.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.bridge.Status())
}

// handleReady is 200 while the bridge is streaming and 503 otherwise.
func (s *Server) handleReady(c *fiber.Ctx) error {
	status := s.bridge.Status()
	if status.State != bridge.StateStreaming {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "bridge is " + status.State.String(),
		})
	}
	return c.JSON(status)
}

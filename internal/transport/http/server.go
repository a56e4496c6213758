// Package http provides the HTTP server for the orchestrator.
package http

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/latambot/orchestrator/internal/service"
)

// NewServer creates and configures the HTTP server: the assistant endpoints
// under /gpt plus the health check.
func NewServer(svc *service.Service, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	handler := NewHandler(svc, logger)
	handler.RegisterRoutes(e)

	return e
}

package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler handles HTTP requests for the metrics feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new metrics handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetSummary returns the running totals as JSON.
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	return c.JSON(h.service.GetSummary())
}

// Prometheus serves the registry in the Prometheus exposition format.
func (h *Handler) Prometheus() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(h.service.Registry(), promhttp.HandlerOpts{}))
}

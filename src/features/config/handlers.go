package config

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the config feature.
type Handler struct {
	configManager *Manager
	path          string
}

// NewHandler creates a new handler for the config feature.
func NewHandler(configManager *Manager, path string) *Handler {
	return &Handler{
		configManager: configManager,
		path:          path,
	}
}

// GetConfig returns the redacted configuration as YAML, or JSON with ?format=json.
func (h *Handler) GetConfig(c *fiber.Ctx) error {
	if c.Query("format") == "json" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(h.configManager.GetJSON())
	}
	return c.SendString(h.configManager.GetYAML())
}

type commandRequest struct {
	Command string `json:"command" form:"command"`
}

// UpdateCommand replaces the lyrics command template and persists the configuration.
func (h *Handler) UpdateCommand(c *fiber.Ctx) error {
	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid request body")
	}

	h.configManager.SetCustomCommand(req.Command)
	slog.Info("Lyrics command updated", "enabled", req.Command != "")

	if h.path != "" {
		if err := h.configManager.Save(h.path); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to save configuration")
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package lyrics

import (
	"github.com/gofiber/fiber/v2"
)

// Handler handles lyrics requests
type Handler struct {
	purge *PurgeAction
}

// NewHandler creates a new lyrics handler
func NewHandler(purge *PurgeAction) *Handler {
	return &Handler{purge: purge}
}

// PurgeCache removes cached lyrics for the selected playlist items.
func (h *Handler) PurgeCache(c *fiber.Ctx) error {
	removed := h.purge.PurgeSelection()
	return c.JSON(fiber.Map{"removed": removed})
}

package lyrics

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers lyrics routes
func RegisterRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")
	lyricsAPI := api.Group("/lyrics")

	lyricsAPI.Post("/cache/purge", handler.PurgeCache)
}

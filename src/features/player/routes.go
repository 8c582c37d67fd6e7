package player

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the player feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	app.Get("/", handler.RenderNowPlaying)

	api := app.Group("/api")
	api.Get("/lyrics", handler.GetLyrics)

	playlist := api.Group("/playlist")
	playlist.Get("/", handler.GetPlaylist)
	playlist.Post("/", handler.AddTrack)
	playlist.Post("/select", handler.SelectTracks)
	playlist.Post("/import", handler.ImportPlaylist)
	playlist.Get("/export", handler.ExportPlaylist)
	playlist.Delete("/:id", handler.RemoveTrack)

	playerAPI := api.Group("/player")
	playerAPI.Post("/play/:id", handler.PlayTrack)
	playerAPI.Post("/stop", handler.StopPlayback)
}

package player

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for the player
type Handler struct {
	service *Service
}

// NewHandler creates a new player handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

type addTrackRequest struct {
	Path string `json:"path" form:"path"`
}

type selectRequest struct {
	IDs []string `json:"ids" form:"ids"`
}

// RenderNowPlaying renders the now playing page
func (h *Handler) RenderNowPlaying(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":  "Lyricbar",
		"Label":  h.service.Label(),
		"Tracks": h.service.Views(),
	})
}

// GetLyrics returns the current label as JSON
func (h *Handler) GetLyrics(c *fiber.Ctx) error {
	return c.JSON(h.service.Label())
}

// GetPlaylist returns the playlist as JSON
func (h *Handler) GetPlaylist(c *fiber.Ctx) error {
	return c.JSON(h.service.Views())
}

// AddTrack adds a file to the playlist
func (h *Handler) AddTrack(c *fiber.Ctx) error {
	var req addTrackRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path is required"})
	}
	track, err := h.service.Add(c.Context(), req.Path)
	if err != nil {
		slog.Error("Failed to add track", "path", req.Path, "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": track.ID})
}

// ImportPlaylist adds the entries of an M3U file on the server
func (h *Handler) ImportPlaylist(c *fiber.Ctx) error {
	var req addTrackRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path is required"})
	}
	added, err := h.service.ImportM3U(c.Context(), req.Path)
	if err != nil {
		slog.Error("Failed to import playlist", "path", req.Path, "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"added": added})
}

// ExportPlaylist returns the playlist as an M3U file
func (h *Handler) ExportPlaylist(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "audio/x-mpegurl")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="lyricbar.m3u"`)
	return c.SendString(GenerateM3U(h.service.Views()))
}

// RemoveTrack removes a track from the playlist
func (h *Handler) RemoveTrack(c *fiber.Ctx) error {
	if err := h.service.Remove(c.Context(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SelectTracks replaces the playlist selection
func (h *Handler) SelectTracks(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	return c.JSON(fiber.Map{"selected": h.service.Select(req.IDs)})
}

// PlayTrack starts playing a track
func (h *Handler) PlayTrack(c *fiber.Ctx) error {
	track, err := h.service.Play(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"playing": track.ID})
}

// StopPlayback stops playback
func (h *Handler) StopPlayback(c *fiber.Ctx) error {
	h.service.Stop()
	return c.SendStatus(fiber.StatusNoContent)
}

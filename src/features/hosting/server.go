package hosting

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/contre95/lyricbar/src/features/config"
	"github.com/contre95/lyricbar/src/features/lyrics"
	"github.com/contre95/lyricbar/src/features/metrics"
	"github.com/contre95/lyricbar/src/features/player"
	"github.com/contre95/lyricbar/src/music"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, configPath string, playerService *player.Service, purge *lyrics.PurgeAction, metricsService *metrics.Service) *Server {
	engine := html.New(cfg.Get().Server.Views, ".html")
	engine.Debug(cfg.Get().Logger.Level == "debug")
	engine.AddFunc("since", func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	})
	engine.AddFunc("stateText", func(state music.LyricsState) string {
		switch state {
		case music.LyricsLoading:
			return "Loading..."
		case music.LyricsNotFound:
			return "Lyrics not found"
		}
		return ""
	})

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
		AppName:               "Lyricbar",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	player.RegisterRoutes(app, playerService)
	lyrics.RegisterRoutes(app, lyrics.NewHandler(purge))
	metrics.RegisterRoutes(app, metrics.NewHandler(metricsService))
	config.RegisterRoutes(app, cfg, configPath)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/contre95/lyricbar/src/features/config"
	"github.com/contre95/lyricbar/src/features/hosting"
	"github.com/contre95/lyricbar/src/features/logging"
	"github.com/contre95/lyricbar/src/features/lyrics"
	"github.com/contre95/lyricbar/src/features/metrics"
	"github.com/contre95/lyricbar/src/features/player"
	"github.com/contre95/lyricbar/src/infra/cache"
	"github.com/contre95/lyricbar/src/infra/database"
	"github.com/contre95/lyricbar/src/infra/tag"
	"github.com/contre95/lyricbar/src/infra/watcher"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the player and lyrics web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgManager, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfgManager, ctx.configPath(), store)
		},
	}
}

func serve(parent context.Context, cfgManager *config.Manager, configPath string, store *cache.Store) error {
	if parent == nil {
		parent = context.Background()
	}
	runCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfgManager.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := store.EnsureReady(); err != nil {
		// Lookups still work; results just are not cached.
		slog.Warn("Lyrics cache directory unavailable", "dir", store.Dir(), "error", err)
	}

	db, err := database.NewSqlitePlaylist(cfgManager.Get().Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open playlist database: %w", err)
	}
	defer db.Close()

	playerService := player.NewService(db, tag.NewTagReader())
	if err := playerService.Load(runCtx); err != nil {
		return err
	}
	go playerService.Run(runCtx)

	metricsService := metrics.NewService(store)
	resolver := newResolver(cfgManager, playerService, store, metricsService)
	defer resolver.Close()
	playerService.OnTrackChanged(resolver.OnTrackChanged)

	purge := lyrics.NewPurgeAction(playerService, store, metricsService)

	if cfgManager.Get().Telegram.Enabled {
		telegramBot, err := hosting.NewTelegramBot(cfgManager)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			playerService.AddSink(telegramBot)
			go telegramBot.Start()
			defer telegramBot.Stop()
			slog.Info("Telegram bot started")
		}
	}

	if cfgManager.Get().WatchConfig {
		stopWatching, err := watchConfig(runCtx, cfgManager, configPath)
		if err != nil {
			slog.Warn("Config hot reload disabled", "error", err)
		} else {
			defer stopWatching()
		}
	}

	server := hosting.NewServer(cfgManager, configPath, playerService, purge, metricsService)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-runCtx.Done():
	}

	slog.Info("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	slog.Info("Server gracefully shut down.")
	return nil
}

// watchConfig reloads the configuration whenever the file changes. Invalid
// files are logged and the previous configuration stays in effect.
func watchConfig(ctx context.Context, cfgManager *config.Manager, path string) (func(), error) {
	events := make(chan watcher.FileEvent, 1)
	w, err := watcher.NewWatcher(events, 0)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx, path); err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case event := <-events:
				if event.EventType == watcher.FileRemoved {
					slog.Warn("Config file removed, keeping current settings", "path", event.Path)
					continue
				}
				cfg, err := config.Read(path)
				if err != nil {
					slog.Error("Failed to reload config", "path", path, "error", err)
					continue
				}
				cfgManager.Update(cfg)
				slog.SetDefault(logging.SetupLogger(cfgManager))
				slog.Info("Configuration reloaded", "path", path)
			case <-ctx.Done():
				return
			}
		}
	}()
	return w.Stop, nil
}

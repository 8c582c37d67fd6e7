package config

import "time"

// Config holds the application configuration.
type Config struct {
	Logger      Logger   `yaml:"logger"`
	Server      Server   `yaml:"server"`
	Database    Database `yaml:"database"`
	Lyrics      Lyrics   `yaml:"lyrics"`
	Telegram    Telegram `yaml:"telegram"`
	WatchConfig bool     `yaml:"watch_config"`
}

// Database holds the configuration for the playlist database
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port" validate:"required"`
	Views       string `yaml:"views"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json text logfmt"`
}

// Lyrics holds the configuration for lyrics resolution.
type Lyrics struct {
	// CacheDir overrides the default cache location ($XDG_CACHE_HOME/lyricbar/lyrics).
	CacheDir string `yaml:"cache_dir"`
	// CustomCommand is the command template run to fetch lyrics. Empty disables it.
	CustomCommand string        `yaml:"custom_command"`
	ScriptTimeout time.Duration `yaml:"script_timeout" validate:"gte=0"`
	LyricsTags    []string      `yaml:"lyrics_tags" validate:"dive,required"`
}

// Telegram holds the configuration for the now-playing lyrics notifier.
type Telegram struct {
	Enabled bool    `yaml:"enabled"`
	Token   string  `yaml:"token"`
	ChatIDs []int64 `yaml:"chat_ids" validate:"required_if=Enabled true"`
}

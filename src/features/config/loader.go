package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// envOverrides are applied on top of the YAML file when set.
type envOverrides struct {
	CustomCommand string `env:"LYRICBAR_CUSTOM_COMMAND"`
	CacheDir      string `env:"LYRICBAR_CACHE_DIR"`
	LogLevel      string `env:"LYRICBAR_LOG_LEVEL"`
	TelegramToken string `env:"TELEGRAM_TOKEN"`
}

// Load reads a YAML file from the given path and returns a new ConfigManager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()

		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		slog.Info("Default configuration created successfully", "path", path)
		if err := applyEnv(defaultCfg); err != nil {
			return nil, err
		}
		manager := NewManager(defaultCfg)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	manager := NewManager(cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	return manager, nil
}

// Read decodes, validates and applies environment overrides to the config at path.
// Unlike Load it never creates the file, so it is used for hot reloads.
func Read(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := createDefaultConfig()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	if overrides.CustomCommand != "" {
		cfg.Lyrics.CustomCommand = overrides.CustomCommand
	}
	if overrides.CacheDir != "" {
		cfg.Lyrics.CacheDir = overrides.CacheDir
	}
	if overrides.LogLevel != "" {
		cfg.Logger.Level = overrides.LogLevel
	}
	if overrides.TelegramToken != "" {
		cfg.Telegram.Token = overrides.TelegramToken
	}
	return nil
}

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3636,
			Views:       "./views",
		},
		Database: Database{
			Path: "./playlist.db",
		},
		Lyrics: Lyrics{
			CacheDir:      "", // resolved from XDG_CACHE_HOME at startup
			CustomCommand: "",
			ScriptTimeout: defaultScriptTimeout,
			LyricsTags:    []string{"unsynced lyrics", "UNSYNCEDLYRICS", "lyrics"},
		},
		Telegram: Telegram{
			Enabled: false,
			Token:   "", // Can be obtained with https://t.me/BotFather
			ChatIDs: []int64{},
		},
		WatchConfig: true,
	}
}

// saveDefaultConfig saves the default configuration to the specified file path
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}

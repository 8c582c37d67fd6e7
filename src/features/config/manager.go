package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultScriptTimeout = 30 * time.Second

// Keys accepted by GetString.
const (
	KeyCustomCommand = "lyrics.custom_command"
	KeyCacheDir      = "lyrics.cache_dir"
	KeyScriptTimeout = "lyrics.script_timeout"
	KeyLoggerLevel   = "logger.level"
	KeyLoggerFormat  = "logger.format"
	KeyDatabasePath  = "database.path"
	KeyServerPort    = "server.port"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new ConfigManager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetString returns a single setting by its dotted key, or "" for unknown keys.
func (m *Manager) GetString(key string) string {
	cfg := m.Get()
	switch key {
	case KeyCustomCommand:
		return cfg.Lyrics.CustomCommand
	case KeyCacheDir:
		return cfg.Lyrics.CacheDir
	case KeyScriptTimeout:
		return cfg.Lyrics.ScriptTimeout.String()
	case KeyLoggerLevel:
		return cfg.Logger.Level
	case KeyLoggerFormat:
		return cfg.Logger.Format
	case KeyDatabasePath:
		return cfg.Database.Path
	case KeyServerPort:
		return strconv.FormatUint(uint64(cfg.Server.Port), 10)
	default:
		slog.Debug("Unknown config key requested", "key", key)
		return ""
	}
}

// ScriptTimeout returns the configured bound for one provider command run.
func (m *Manager) ScriptTimeout() time.Duration {
	if d := m.Get().Lyrics.ScriptTimeout; d > 0 {
		return d
	}
	return defaultScriptTimeout
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"custom_command_changed", oldConfig.Lyrics.CustomCommand != config.Lyrics.CustomCommand,
			"cache_dir_changed", oldConfig.Lyrics.CacheDir != config.Lyrics.CacheDir,
			"logger_level_changed", oldConfig.Logger.Level != config.Logger.Level,
			"telegram_enabled_changed", oldConfig.Telegram.Enabled != config.Telegram.Enabled,
		)
		if oldConfig.Lyrics.CacheDir != config.Lyrics.CacheDir {
			slog.Warn("Cache directory changes take effect after a restart", "cache_dir", config.Lyrics.CacheDir)
		}
	}
}

// LyricsTags returns the metadata fields checked for embedded lyrics, in priority order.
func (m *Manager) LyricsTags() []string {
	return m.Get().Lyrics.LyricsTags
}

// SetCustomCommand replaces the lyrics command template, keeping every other setting.
// The copy and swap happen under one lock so a concurrent Update is never lost.
func (m *Manager) SetCustomCommand(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfgCpy := *m.config
	cfgCpy.Lyrics.CustomCommand = strings.TrimSpace(command)
	m.config = &cfgCpy
}

// Save writes the current configuration to the specified file path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create config file", "path", path, "error", err)
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(m.config); err != nil {
		slog.Error("failed to encode config", "path", path, "error", err)
		return err
	}

	slog.Info("Configuration saved successfully", "path", path)
	return nil
}

// EnsureDirectories creates the database directory if it doesn't exist.
func (m *Manager) EnsureDirectories() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	slog.Info("Required directories created/verified", "database", dbDir)
	return nil
}

// redactedCfg gets a redacted copy of the Config
func (m *Manager) redactedCfg() Config {
	var cfgCpy = *m.config
	if cfgCpy.Telegram.Token != "" {
		cfgCpy.Telegram.Token = "<redacted>"
	}
	return cfgCpy
}

// GetJSON returns the current configuration as a JSON string.
func (m *Manager) GetJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jsonBytes, err := json.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return string(jsonBytes)
}

func (m *Manager) GetYAML() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	yamlBytes, err := yaml.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to YAML", "error", err)
		return err.Error()
	}
	return string(yamlBytes)
}

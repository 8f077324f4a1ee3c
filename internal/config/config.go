package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Backend connection
	ServerURL     string
	ClientTimeout time.Duration

	// Calendar
	Timezone string

	// Preferences persistence
	PrefsFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	timeout := 2 * time.Minute
	if t := os.Getenv("MEMORIA_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return Config{
		ServerURL:     getEnv("MEMORIA_SERVER_URL", "http://localhost:8787"),
		ClientTimeout: timeout,
		Timezone:      getEnv("MEMORIA_TIMEZONE", ""),
		PrefsFile:     getEnv("MEMORIA_PREFS_FILE", defaultPrefsFile()),
		LogFile:       getEnv("MEMORIA_LOG_FILE", "/tmp/memoria.log"),
		LogLevel:      parseLogLevel(getEnv("MEMORIA_LOG_LEVEL", "INFO")),
	}
}

// Location resolves the configured time zone. An empty or invalid zone
// falls back to the system's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("load time zone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func defaultPrefsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/memoria-prefs.yaml"
	}
	return filepath.Join(home, ".config", "memoria", "prefs.yaml")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

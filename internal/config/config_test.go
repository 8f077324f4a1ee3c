package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLocationFallback(t *testing.T) {
	loc, err := Config{Timezone: ""}.Location()
	if err != nil {
		t.Fatalf("empty zone: %v", err)
	}
	if loc != time.Local {
		t.Errorf("empty zone resolved to %v, want local", loc)
	}

	loc, err = Config{Timezone: "Not/AZone"}.Location()
	if err == nil {
		t.Error("invalid zone: expected an error")
	}
	if loc != time.Local {
		t.Errorf("invalid zone resolved to %v, want local fallback", loc)
	}

	loc, err = Config{Timezone: "Asia/Tokyo"}.Location()
	if err != nil {
		t.Fatalf("valid zone: %v", err)
	}
	if loc.String() != "Asia/Tokyo" {
		t.Errorf("resolved to %v, want Asia/Tokyo", loc)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerURL == "" {
		t.Error("ServerURL should have a default")
	}
	if cfg.ClientTimeout <= 0 {
		t.Error("ClientTimeout should have a default")
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("range loaded", "days", 7)

	if !strings.Contains(stderr.String(), "range loaded") {
		t.Errorf("stderr output missing message: %q", stderr.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if entry["msg"] != "range loaded" {
		t.Errorf("file entry msg = %v", entry["msg"])
	}
	if entry["days"] != float64(7) {
		t.Errorf("file entry days = %v", entry["days"])
	}
}

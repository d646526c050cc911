package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("YTMUX_TEST_VALUE", "set")

	if got := GetEnv("YTMUX_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("Expected 'set', got %s", got)
	}
	if got := GetEnv("YTMUX_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Expected 'fallback', got %s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("YTMUX_TEST_INT", "42")
	t.Setenv("YTMUX_TEST_BAD", "forty")

	if got := GetEnvInt("YTMUX_TEST_INT", 1); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := GetEnvInt("YTMUX_TEST_BAD", 1); got != 1 {
		t.Errorf("Expected fallback for invalid value, got %d", got)
	}
	if got := GetEnvInt("YTMUX_TEST_UNSET", 7); got != 7 {
		t.Errorf("Expected fallback for unset value, got %d", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvRateLimitKBps, "256")
	t.Setenv(EnvFFmpegPath, "")

	env := FromEnv()
	if env.LogLevel != "debug" {
		t.Errorf("Expected debug, got %s", env.LogLevel)
	}
	if env.RateLimitKBps != 256 {
		t.Errorf("Expected 256, got %d", env.RateLimitKBps)
	}
	if env.FFmpegPath != "" {
		t.Errorf("Expected empty ffmpeg path, got %s", env.FFmpegPath)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("YTMUX_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("YTMUX_TEST_DOTENV", "")
	os.Unsetenv("YTMUX_TEST_DOTENV")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := os.Getenv("YTMUX_TEST_DOTENV"); got != "from-file" {
		t.Errorf("Expected value from file, got %q", got)
	}

	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for missing file")
	}
}

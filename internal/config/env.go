package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment keys
const (
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvFFmpegPath      = "FFMPEG_PATH"
	EnvCaptionLanguage = "CAPTION_LANGUAGE"
	EnvRateLimitKBps   = "RATE_LIMIT_KBPS"
	EnvMetricsAddr     = "METRICS_ADDR"
	EnvHTTPTimeoutSec  = "HTTP_TIMEOUT_SEC"
)

// Env holds process configuration read from the environment
type Env struct {
	LogLevel        string
	LogFormat       string
	FFmpegPath      string
	CaptionLanguage string // empty means use the stored preference
	RateLimitKBps   int
	MetricsAddr     string
	HTTPTimeoutSec  int
}

// LoadEnv reads .env files into the process environment. With no paths, ".env"
// is used. A missing file returns an error that callers may ignore.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv collects Env from the current environment with defaults applied
func FromEnv() Env {
	return Env{
		LogLevel:        GetEnv(EnvLogLevel, "info"),
		LogFormat:       GetEnv(EnvLogFormat, "text"),
		FFmpegPath:      GetEnv(EnvFFmpegPath, ""),
		CaptionLanguage: GetEnv(EnvCaptionLanguage, ""),
		RateLimitKBps:   GetEnvInt(EnvRateLimitKBps, 0),
		MetricsAddr:     GetEnv(EnvMetricsAddr, ""),
		HTTPTimeoutSec:  GetEnvInt(EnvHTTPTimeoutSec, 30),
	}
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
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

// GetEnvFloat is GetEnvInt for floating point values.
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvDuration parses values such as "5s" or "10m". A bare integer is
// taken as seconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

// GetEnvList splits a comma separated value, dropping empty entries.
func GetEnvList(key string, fallback []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Config is the player service configuration.
type Config struct {
	Port              string
	LogLevel          string
	LogFormat         string
	MinZoom           float64
	MaxZoom           float64
	ZoomStep          float64
	ControlsHideAfter time.Duration
	SessionIdleTTL    time.Duration
	ReapInterval      time.Duration
	EngineTimeout     time.Duration
	CORSOrigins       []string
}

// FromEnv builds a Config from the environment, applying defaults.
func FromEnv() Config {
	return Config{
		Port:              GetEnv("PORT", "8080"),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		LogFormat:         GetEnv("LOG_FORMAT", "json"),
		MinZoom:           GetEnvFloat("MIN_ZOOM", 1),
		MaxZoom:           GetEnvFloat("MAX_ZOOM", 5),
		ZoomStep:          GetEnvFloat("ZOOM_STEP", 0.1),
		ControlsHideAfter: GetEnvDuration("CONTROLS_HIDE_AFTER", 3*time.Second),
		SessionIdleTTL:    GetEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		ReapInterval:      GetEnvDuration("REAP_INTERVAL", time.Minute),
		EngineTimeout:     GetEnvDuration("ENGINE_TIMEOUT", 10*time.Second),
		CORSOrigins:       GetEnvList("CORS_ORIGINS", []string{"*"}),
	}
}

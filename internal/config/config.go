// Package config loads process configuration from the environment and
// builds the process logger. The core packages never read the environment
// themselves; everything is resolved here and passed in.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/crawlbase/crawlbase-mcp/internal/crawlbase"
)

// Config represents process configuration.
type Config struct {
	Credentials crawlbase.Credentials
	Port        int
	LogLevel    string
	DebugFile   string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Credentials: crawlbase.Credentials{
			Token:   os.Getenv("CRAWLBASE_TOKEN"),
			JSToken: os.Getenv("CRAWLBASE_JS_TOKEN"),
		},
		Port:      3000,
		LogLevel:  os.Getenv("LOG_LEVEL"),
		DebugFile: os.Getenv("CRAWLBASE_DEBUG_FILE"),
	}

	if port := os.Getenv("MCP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}

	return cfg
}

// NewLogger builds the process logger. Logs go to stderr (stdout carries
// the MCP wire protocol in stdio mode); when DebugFile is set a JSON copy
// is appended there as well, mirroring the debug side channel.
func NewLogger(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		level = parsed
	}

	var writer zerolog.LevelWriter = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr})
	if cfg.DebugFile != "" {
		if f, err := os.OpenFile(cfg.DebugFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			writer = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, f)
			level = zerolog.DebugLevel
		}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

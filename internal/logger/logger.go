// Package logger constructs the process-wide zerolog logger. It is built once
// at startup and handed to components by injection.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger for the given environment: human-readable console
// output in dev, JSON elsewhere. Level defaults to info and can be lowered
// with LOG_LEVEL=debug.
func New(env string) zerolog.Logger {
	level := zerolog.InfoLevel
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = zerolog.DebugLevel
	}

	var log zerolog.Logger
	if env == "dev" {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		log = zerolog.New(out)
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Str("service", "velora-auth").Logger()
}

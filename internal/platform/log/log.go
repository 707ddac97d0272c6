// Package log provides the process-wide zerolog sink, configured once from
// environment at startup and shared by all three services.
package log

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is a thin alias so call sites don't import zerolog directly.
type Logger = zerolog.Logger

// New builds a JSON logger writing to stdout at the given level name
// ("debug", "info", "warn", "error"; unknown values fall back to info).
func New(levelName, service string) Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the configured zerolog instance. Dev environments
// log at debug level, everything else at info.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
}

package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewZerolog builds the structured logger used by the database and influx
// managers.
func NewZerolog(w io.Writer, level, component string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(parseZerologLevel(level)).With().
		Timestamp().
		Str("component", component).
		Logger()
}

func parseZerologLevel(level string) zerolog.Level {
	switch normalizeLevel(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

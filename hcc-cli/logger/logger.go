package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// L is the human-facing CLI logger
var L = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger().
	Level(zerolog.InfoLevel)

// SetVerbose switches the CLI logger to debug output
func SetVerbose(verbose bool) {
	if verbose {
		L = L.Level(zerolog.DebugLevel)
	}
}

package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger points the global logger at a console writer on w (stderr when
// nil) and applies level, falling back when level is empty or unknown.
func SetupLogger(w io.Writer, level string, fallback zerolog.Level) {
	if w == nil {
		w = os.Stderr
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = fallback
	}
	zerolog.SetGlobalLevel(lvl)
}

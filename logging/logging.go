package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the console logger used by the command line tools.
// Level can be one of: debug, info, warn, error, fatal, panic. An empty level means info.
func NewLogger(out io.Writer, level string) (logger zerolog.Logger, err error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return
		}
	}

	logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Caller().Logger()
	return
}

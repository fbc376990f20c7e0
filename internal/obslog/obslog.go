// Package obslog constructs the structured logger used throughout AIcity,
// in place of the teacher's bare log/slog: zerolog gives every subsystem the
// same console-or-JSON writer and level filtering with the same call-site
// shape (field builder chained into Msg).
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. When w is nil, output goes to stderr in
// human-readable console form when attached to a TTY, JSON otherwise —
// matching the teacher's isatty-gated formatting decision in
// cmd/worldsim/main.go.
func New(level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if w == nil {
		if isTerminal(os.Stderr) {
			w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		} else {
			w = os.Stderr
		}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

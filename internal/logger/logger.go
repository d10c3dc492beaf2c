package logger

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger and installs it as the zerolog global.
// format is "json" or "console".
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l
}

// Std adapts l for libraries that only accept a standard library logger.
func Std(l zerolog.Logger, component string) *stdlog.Logger {
	return stdlog.New(l.With().Str("component", component).Logger(), "", 0)
}

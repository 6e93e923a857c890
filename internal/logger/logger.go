// Package logger configures zerolog from command line options.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group for logging.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log format" choice:"console" choice:"json" default:"console"`
	Output string `long:"log-output" env:"LOG_OUTPUT" description:"Log output: stderr, stdout or a file path" default:"stderr"`
}

// Setup configures the global logger. Logs go to stderr by default so
// converters can write their result to stdout.
func (l *Logger) Setup() {
	w, err := l.writer()
	if err != nil {
		w = os.Stderr
	}

	log.Logger = l.New(w)
	zerolog.SetGlobalLevel(l.level())
	zerolog.DefaultContextLogger = &log.Logger

	if err != nil {
		log.Error().Err(err).Str("output", l.Output).Msg("Failed to open log output, using stderr")
	}
}

// New builds a logger writing to w with the configured format.
func (l *Logger) New(w io.Writer) zerolog.Logger {
	if l.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: w != os.Stderr && w != os.Stdout}
	}

	return zerolog.New(w).Level(l.level()).With().Timestamp().Logger()
}

func (l *Logger) level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		return zerolog.InfoLevel
	}

	return lvl
}

func (l *Logger) writer() (io.Writer, error) {
	switch l.Output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		return os.OpenFile(l.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	}
}

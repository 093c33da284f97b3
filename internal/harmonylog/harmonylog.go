// Package harmonylog wraps github.com/rs/zerolog behind a small,
// injectable Logger, the way jhkimqd-chaos-utils/pkg/reporting wraps
// it for its chaos-injection tooling: a Config selects level and
// format, and every session/pipeline/strategy component takes a
// *Logger at construction rather than reaching for a package-level
// global.
package harmonylog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the zerolog output encoding.
type Format string

const (
	// FormatJSON writes one JSON object per line (the zerolog default).
	FormatJSON Format = "json"
	// FormatConsole writes human-readable, colorized lines.
	FormatConsole Format = "console"
)

// Level mirrors zerolog's level names so callers don't need to import
// zerolog directly just to configure a Logger.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config controls how a Logger is constructed.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is the structured logger every component in the session takes
// as a constructor argument.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger from cfg, defaulting to info level, JSON output,
// and stderr when fields are left zero.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	out := cfg.Output
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339, NoColor: false}
	}
	z := zerolog.New(out).With().Timestamp().Logger()
	switch cfg.Level {
	case LevelDebug:
		z = z.Level(zerolog.DebugLevel)
	case LevelWarn:
		z = z.Level(zerolog.WarnLevel)
	case LevelError:
		z = z.Level(zerolog.ErrorLevel)
	default:
		z = z.Level(zerolog.InfoLevel)
	}
	return &Logger{z: z}
}

// Nop returns a Logger that discards everything, for tests that don't
// care about log output.
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}

// With returns a child Logger carrying the given structured fields on
// every subsequent line.
func (l *Logger) With(fields map[string]any) *Logger {
	ctx := l.z.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{z: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.log(l.z.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(l.z.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(l.z.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.log(l.z.Error(), msg, fields) }

func (l *Logger) log(ev *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

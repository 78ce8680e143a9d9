// Package logx builds the zerolog loggers used by the command, the audit
// workers and the storage layer.
package logx

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a console logger writing to w at the given level. Colors are
// used only when w is a terminal.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(w),
	}
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		return fmt.Sprintf("%-20s", fmt.Sprintf("%s:%d", short, line))
	}
	return zerolog.New(output).Level(level).With().Timestamp().Caller().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

// Badger adapts a zerolog logger to badger's Logger interface.
type Badger struct {
	Log zerolog.Logger
}

func (b Badger) Errorf(format string, args ...interface{}) {
	b.Log.Error().Str("component", "badger").Msgf(trim(format), args...)
}

func (b Badger) Warningf(format string, args ...interface{}) {
	b.Log.Warn().Str("component", "badger").Msgf(trim(format), args...)
}

func (b Badger) Infof(format string, args ...interface{}) {
	b.Log.Info().Str("component", "badger").Msgf(trim(format), args...)
}

func (b Badger) Debugf(format string, args ...interface{}) {
	b.Log.Debug().Str("component", "badger").Msgf(trim(format), args...)
}

// badger terminates most of its messages with a newline
func trim(format string) string {
	for len(format) > 0 && format[len(format)-1] == '\n' {
		format = format[:len(format)-1]
	}
	return format
}

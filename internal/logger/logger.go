package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	SetOutput(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func Get() *zerolog.Logger {
	return &log
}

// SetOutput replaces the writer behind the shared logger. Tests use it to
// capture output.
func SetOutput(w io.Writer) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

func SetDebug(enabled bool) {
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ForRun returns a child logger tagged with a pipeline run and its thread.
func ForRun(runID, channel, threadTS string) zerolog.Logger {
	return log.With().
		Str("run_id", runID).
		Str("channel", channel).
		Str("thread_ts", threadTS).
		Logger()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

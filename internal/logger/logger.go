package logger

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

func New() *Logger {
	base := logrus.New()

	// Local env = pretty console; others = JSON
	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	// Keep stdout clean for command output; logs go to stderr
	base.SetOutput(os.Stderr)

	// Log level
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// SetVerbosity overrides the env-derived level from CLI flags.
func (l *Logger) SetVerbosity(verbose, quiet bool) {
	switch {
	case verbose:
		l.Logger.SetLevel(logrus.DebugLevel)
	case quiet:
		l.Logger.SetLevel(logrus.ErrorLevel)
	}
}

// WithRun attaches a fresh run id and returns a logger scoped to one
// pipeline invocation.
func (l *Logger) WithRun() *Logger {
	return &Logger{Entry: l.WithField("run_id", uuid.New().String())}
}

// WithEpisode scopes an entry to one feed item
func (l *Logger) WithEpisode(title string) *logrus.Entry {
	return l.WithField("episode", title)
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}

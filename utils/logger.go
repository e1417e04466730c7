package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger provides leveled, printf-style logging throughout the application.
// Messages conventionally start with a "[component]" tag.
type Logger struct {
	entry *logrus.Logger
}

// NewLogger creates an info-level Logger writing text to stdout.
func NewLogger() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	return &Logger{entry: l}
}

// NewConfiguredLogger creates a Logger with the given level ("debug", "info",
// ...) and format ("text" or "json").
func NewConfiguredLogger(level, format string) (*Logger, error) {
	l := NewLogger()
	if err := l.SetLevel(level); err != nil {
		return nil, err
	}
	if format == "json" {
		l.entry.SetFormatter(&logrus.JSONFormatter{})
	}
	return l, nil
}

// SetLevel changes the minimum level that is written.
func (l *Logger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	l.entry.SetLevel(lvl)
	return nil
}

// SetOutput redirects all log output to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.SetOutput(w)
}

func (l *Logger) Info(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

// Warning returns a callback that logs recovered errors at warn level under
// the given component tag. It matches media.WarningFunc.
func (l *Logger) Warning(component string) func(context string, err error) {
	return func(context string, err error) {
		l.entry.WithError(err).Warnf("[%s] %s", component, context)
	}
}

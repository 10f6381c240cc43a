// Package logger is the process-wide logrus logger. Warnings and errors
// are always written; debug and info only in verbose mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Formats accepted by SetFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	log     = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(textFormatter())
	l.SetLevel(logrus.WarnLevel)
	return l
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{FullTimestamp: true, DisableColors: true}
}

// SetVerbose switches between debug and warning level.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	level := logrus.WarnLevel
	if v {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
}

// IsVerbose reports whether debug output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetFormat selects text (the default) or JSON lines.
func SetFormat(format string) error {
	switch format {
	case "", FormatText:
		log.SetFormatter(textFormatter())
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
	return nil
}

// SetOutput redirects logs, stderr by default.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Debug(format string, args ...any) { log.Debugf(format, args...) }

func Info(format string, args ...any) { log.Infof(format, args...) }

func Warn(format string, args ...any) { log.Warnf(format, args...) }

func Error(format string, args ...any) { log.Errorf(format, args...) }

// WithFields returns an entry carrying structured fields, such as the
// conversation a pipeline run belongs to.
func WithFields(fields map[string]any) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}

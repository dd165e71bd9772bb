// Package audit records every detected change as one human-readable
// line in a persistent, append-only log.
//
// Format: <RFC3339 timestamp> - <LEVEL> - <message>. The log is for
// humans; nothing in bookwatch parses it back. Audit failures are
// never fatal: if the destination cannot be opened the logger degrades
// to a no-op and says so once on stderr.
package audit

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bookwatch/bookwatch/pkg/model"
)

// Logger appends audit lines. Zero-value is not usable; construct with
// New or NewWriter.
type Logger struct {
	log    *logrus.Logger
	closer io.Closer
}

// lineFormatter emits the audit line format.
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	line := fmt.Sprintf("%s - %s - %s\n",
		e.Time.UTC().Format(time.RFC3339),
		strings.ToUpper(e.Level.String()),
		e.Message)
	return []byte(line), nil
}

// New opens (or creates) the audit log at path in append mode. On open
// failure it reports once to stderr and returns a logger that discards
// everything, so a broken audit destination never aborts a cycle.
func New(path string) *Logger {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bw: audit log unavailable (%v), continuing without\n", err)
		return NewWriter(io.Discard)
	}
	l := NewWriter(f)
	l.closer = f
	return l
}

// NewWriter returns a logger that appends to w. Used by tests and by
// the degraded path in New.
func NewWriter(w io.Writer) *Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(lineFormatter{})
	log.SetLevel(logrus.InfoLevel)
	return &Logger{log: log}
}

// Record appends one line for a detected change.
func (l *Logger) Record(e model.ChangeEvent) {
	l.log.Info(e.Describe())
}

// Errorf appends one ERROR line with a short diagnostic. Used for fetch
// failures, store failures, and swallowed notification errors.
func (l *Logger) Errorf(format string, args ...any) {
	l.log.Errorf(format, args...)
}

// Warnf appends one WARNING line.
func (l *Logger) Warnf(format string, args ...any) {
	l.log.Warnf(format, args...)
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

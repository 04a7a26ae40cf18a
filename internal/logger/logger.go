// Package logger wraps charm/log for structured logging.
package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w.
func New(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
}

// NewWithLevel creates a logger with a specific level.
func NewWithLevel(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *log.Logger {
	return New(io.Discard)
}

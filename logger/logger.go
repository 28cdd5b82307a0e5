// Package logger defines the logging interface used across the layer.
package logger

import (
	"io"
	"log"
)

// Logger represents an interface for a shared logger.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Nop is a Logger that discards everything.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// NewStandard returns a Logger writing prefixed lines to w via the standard
// library logger.
func NewStandard(w io.Writer) Logger {
	return &standardLogger{logger: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
}

type standardLogger struct {
	logger *log.Logger
}

func (l *standardLogger) Debugf(format string, v ...any) { l.logger.Printf("DEBUG: "+format, v...) }
func (l *standardLogger) Infof(format string, v ...any)  { l.logger.Printf("INFO:  "+format, v...) }
func (l *standardLogger) Warnf(format string, v ...any)  { l.logger.Printf("WARN:  "+format, v...) }
func (l *standardLogger) Errorf(format string, v ...any) { l.logger.Printf("ERROR: "+format, v...) }

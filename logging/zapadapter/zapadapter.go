// Package zapadapter bridges go.uber.org/zap into the logging.Logger
// interface for applications already standardized on zap.
package zapadapter

import (
	"go.uber.org/zap"

	"github.com/swarmforge/swarmforge/logging"
)

// Adapter implements logging.Logger on top of a zap logger. Key/value pairs
// are forwarded to zap's sugared *w methods.
type Adapter struct {
	sugar *zap.SugaredLogger
}

// New wraps a *zap.Logger. The adapter is safe for concurrent use.
func New(l *zap.Logger) *Adapter {
	return &Adapter{sugar: l.Sugar()}
}

// Debug logs a debug message with structured key/value pairs.
func (a *Adapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }

// Info logs an informational message with structured key/value pairs.
func (a *Adapter) Info(msg string, args ...any) { a.sugar.Infow(msg, args...) }

// Warn logs a warning message with structured key/value pairs.
func (a *Adapter) Warn(msg string, args ...any) { a.sugar.Warnw(msg, args...) }

// Error logs an error message with structured key/value pairs.
func (a *Adapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }

var _ logging.Logger = (*Adapter)(nil)

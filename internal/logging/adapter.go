package logging

import (
	"log/slog"
)

// Logger is the interface accepted by packages that should not depend on a
// concrete slog.Logger. calendar.RemoteClient logs through it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter adapts an slog.Logger to the Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }
func (a *SlogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }

// With returns an adapter whose records carry the given attributes.
func (a *SlogAdapter) With(args ...any) *SlogAdapter {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}

// Discard returns a Logger that drops every record.
func Discard() *SlogAdapter {
	return NewSlogAdapter(slog.New(slog.DiscardHandler))
}

package logging

import "log/slog"

// Logger is what the quote engine logs through. *slog.Logger satisfies it,
// so tests can pass Discard() and servers their configured slog logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter is a Logger backed by slog whose With keeps the Logger type.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter wraps logger, falling back to slog.Default() for nil.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{Logger: logger}
}

// With returns an adapter whose records carry args.
func (a *SlogAdapter) With(args ...any) *SlogAdapter {
	return &SlogAdapter{Logger: a.Logger.With(args...)}
}

// DefaultLogger resolves slog.Default() at call time.
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(nil)
}

// Discard drops every record.
func Discard() *SlogAdapter {
	return NewSlogAdapter(slog.New(slog.DiscardHandler))
}

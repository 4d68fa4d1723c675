package dokan

import "github.com/marmos91/dokanfs/internal/logger"

// Logger receives diagnostics from the dispatcher and the mount lifecycle.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	Fatalf(format string, v ...any)
}

// DefaultLogger writes through the process-wide leveled logger.
type DefaultLogger struct{}

func (DefaultLogger) Debugf(format string, v ...any) { logger.Debug(format, v...) }
func (DefaultLogger) Infof(format string, v ...any)  { logger.Info(format, v...) }
func (DefaultLogger) Warnf(format string, v ...any)  { logger.Warn(format, v...) }
func (DefaultLogger) Errorf(format string, v ...any) { logger.Error(format, v...) }
func (DefaultLogger) Fatalf(format string, v ...any) { logger.Fatal(format, v...) }

// NullLogger discards everything.
type NullLogger struct{}

func (NullLogger) Debugf(format string, v ...any) {}
func (NullLogger) Infof(format string, v ...any)  {}
func (NullLogger) Warnf(format string, v ...any)  {}
func (NullLogger) Errorf(format string, v ...any) {}
func (NullLogger) Fatalf(format string, v ...any) {}

// DebugEnabled reports whether debug output is currently emitted.
func (DefaultLogger) DebugEnabled() bool { return logger.IsDebugEnabled() }

// debugEnabled checks for an optional DebugEnabled method; loggers without
// one are assumed to want debug output.
func debugEnabled(l Logger) bool {
	if d, ok := l.(interface{ DebugEnabled() bool }); ok {
		return d.DebugEnabled()
	}
	_, null := l.(NullLogger)
	return !null
}

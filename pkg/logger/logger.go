package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib logger that forwards every line to l at error level,
// tagged with component. Used where a library only accepts *log.Logger.
func New(l *slog.Logger, component string) *log.Logger {
	return slog.NewLogLogger(l.With("component", component).Handler(), slog.LevelError)
}

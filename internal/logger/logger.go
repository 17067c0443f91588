package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
	initLevel     = slog.LevelInfo
)

// SetLevel configures the level Init uses, read from config.Logging.Level.
// Must be called before the first Init/Get call to take effect.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		initLevel = slog.LevelDebug
	case "warn", "warning":
		initLevel = slog.LevelWarn
	case "error":
		initLevel = slog.LevelError
	default:
		initLevel = slog.LevelInfo
	}
}

// Init initializes the default logger with a JSON handler writing to
// os.Stdout. It ensures the logger is initialized only once per process.
func Init() {
	once.Do(func() {
		defaultLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: initLevel,
		}))
		slog.SetDefault(defaultLogger)
	})
}

// Get returns the initialized default logger, initializing it first if
// needed.
func Get() *slog.Logger {
	Init()
	return defaultLogger
}

// Info logs an informational message using the default logger.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs a warning message using the default logger. Every degraded-mode
// fallback in the pipeline logs at this level.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs an error message using the default logger.
func Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	Get().Error(msg, args...)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

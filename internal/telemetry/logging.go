package telemetry

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// LogLevel читает уровень из LOG_LEVEL (DEBUG, INFO, WARN, ERROR).
// Неизвестное значение — INFO.
func LogLevel() slog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger создаёт логгер бинарника service и делает его глобальным.
// LOG_FORMAT=text включает человекочитаемый вывод, иначе JSON.
func SetupLogger(service string) *slog.Logger {
	level := LogLevel()
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

type loggerKey struct{}

// WithLogger кладёт логгер запроса в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext возвращает логгер запроса или fallback, если его нет.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// WithRequestID добавляет request_id.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithAppID добавляет app_id.
func WithAppID(logger *slog.Logger, appID string) *slog.Logger {
	return logger.With("app_id", appID)
}

// WithSessionID добавляет session_id.
func WithSessionID(logger *slog.Logger, sessionID string) *slog.Logger {
	return logger.With("session_id", sessionID)
}

// WithWorkingCopy добавляет working_copy_id.
func WithWorkingCopy(logger *slog.Logger, wcID string) *slog.Logger {
	return logger.With("working_copy_id", wcID)
}

package naturaldb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with store-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDatabase adds user and database fields to the logger.
func (l *Logger) WithDatabase(userID, database string) *Logger {
	return &Logger{
		Logger: l.Logger.With("user", userID, "database", database),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, table, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"table", table,
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"table", table,
			"id", id,
		)
	}
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, table, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"table", table,
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"table", table,
			"id", id,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, table, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"table", table,
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"table", table,
			"id", id,
		)
	}
}

// LogQuery logs a query operation.
func (l *Logger) LogQuery(ctx context.Context, table, op string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"table", table,
			"op", op,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"table", table,
			"op", op,
			"results", results,
		)
	}
}

// LogImport logs a bulk import operation.
func (l *Logger) LogImport(ctx context.Context, table string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"table", table,
			"imported", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "import completed",
			"table", table,
			"imported", count,
		)
	}
}

// LogBackup logs a backup or restore operation.
func (l *Logger) LogBackup(ctx context.Context, op, blob string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "backup operation failed",
			"op", op,
			"blob", blob,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "backup operation completed",
			"op", op,
			"blob", blob,
		)
	}
}

package bigsi

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with bigsi-specific field helpers so operations
// log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is nil,
// uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithAccession adds an accession field to the logger.
func (l *Logger) WithAccession(accession uint) *Logger {
	return &Logger{Logger: l.Logger.With("accession", accession)}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(accession uint, valueLen int, err error) {
	if err != nil {
		l.Error("insert failed",
			"accession", accession,
			"value_len", valueLen,
			"error", err,
		)
	} else {
		l.Debug("insert completed",
			"accession", accession,
			"value_len", valueLen,
		)
	}
}

// LogQuery logs a query operation.
func (l *Logger) LogQuery(valueLen, hits int) {
	l.Debug("query completed",
		"value_len", valueLen,
		"hits", hits,
	)
}

// LogMerge logs a merge operation.
func (l *Logger) LogMerge(otherAccessions uint, err error) {
	if err != nil {
		l.Error("merge failed",
			"other_accessions", otherAccessions,
			"error", err,
		)
	} else {
		l.Info("merge completed",
			"other_accessions", otherAccessions,
		)
	}
}

// LogCompact logs a compaction pass.
func (l *Logger) LogCompact(rows int) {
	l.Info("compaction completed",
		"rows_compacted", rows,
	)
}

// LogSave logs a snapshot save.
func (l *Logger) LogSave(ctx context.Context, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
			"bytes", bytes,
		)
	}
}

// LogLoad logs a snapshot load.
func (l *Logger) LogLoad(ctx context.Context, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"name", name,
			"bytes", bytes,
		)
	}
}

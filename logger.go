package cqltable

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/cqltable/cql"
)

// Logger wraps slog.Logger with table-specific helpers.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithTable adds the fully-qualified table name to every record.
func (l *Logger) WithTable(fqName string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", fqName),
	}
}

// LogStatement logs one executed statement.
func (l *Logger) LogStatement(ctx context.Context, op cql.OpType, text string, numArgs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "statement failed",
			"op", op.String(),
			"cql", text,
			"args", numArgs,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "statement executed",
			"op", op.String(),
			"cql", text,
			"args", numArgs,
		)
	}
}

// LogSetup logs the outcome of schema provisioning.
func (l *Logger) LogSetup(ctx context.Context, statements int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "table setup failed",
			"statements", statements,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table setup completed",
			"statements", statements,
		)
	}
}

// LogSearch logs a similarity search.
func (l *Logger) LogSearch(ctx context.Context, n, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"n", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"n", n,
			"results", resultsFound,
		)
	}
}

// LogFallback logs a retry with the legacy similarity syntax.
func (l *Logger) LogFallback(ctx context.Context, err error) {
	l.WarnContext(ctx, "ANN syntax rejected, retrying with legacy syntax",
		"error", err,
	)
}

// LogBulkDelete logs the outcome of a find-and-delete run.
func (l *Logger) LogBulkDelete(ctx context.Context, deleted int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "find and delete aborted",
			"deleted", deleted,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "find and delete completed",
			"deleted", deleted,
		)
	}
}

// LogWrite logs a put.
func (l *Logger) LogWrite(ctx context.Context, columns int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put failed",
			"columns", columns,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "put completed",
			"columns", columns,
		)
	}
}

// LogRead logs a read returning rows.
func (l *Logger) LogRead(ctx context.Context, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"rows", rows,
		)
	}
}

// LogDelete logs a keyed or partition delete.
func (l *Logger) LogDelete(ctx context.Context, conditions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"conditions", conditions,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"conditions", conditions,
		)
	}
}

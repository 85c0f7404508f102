// Package logger configures the application's structured JSON logging
// on log/slog and carries request-scoped loggers through contexts.
package logger

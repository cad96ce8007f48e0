// Package logging assembles the structured slog loggers used across vidflow.
//
// It centralizes level and output plumbing, standardizes field names so
// engine, starter, and API code tag log lines the same way, and exposes
// context-aware helpers that pick up instance, stage, and correlation
// identifiers automatically. A no-op logger is provided for tests.
package logging

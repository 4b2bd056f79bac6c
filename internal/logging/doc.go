// Package logging assembles structured slog loggers and formatting helpers used
// across cinefile.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so import and seed runs can tag
// log lines with run IDs and list IDs. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging

// Package logging assembles structured slog loggers and formatting helpers used
// across the repair pipeline.
//
// It owns the console and JSON handlers, the per-run logger that tees a JSON
// record of every stage into the run log file, and context helpers that tag
// lines with the run id and stage. Warnings go through WarnWithContext so each
// one carries an event type, a hint and its impact on the archive.
//
// Tests and wiring code that cannot fail use NewNop.
package logging

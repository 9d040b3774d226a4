// Package audit defines the security audit trail produced by the access
// engine and the file operation service.
//
// A SecurityEvent is created once, never mutated, and handed to a Recorder.
// Recorders are append-only sinks; concrete file and SQLite sinks live in
// internal/infrastructure/auditstore. Memory keeps a bounded ring of recent
// events for the health and audit endpoints.
//
// Events are recorded for every denial and for every create, move and
// delete outcome. Successful reads and listings are not audited.
//
// Example Usage:
//
//	rec := audit.Multi(fileSink, audit.NewMemory(256))
//	_ = rec.Record(ctx, audit.NewEvent("delete_file", actor, path).Denied("delete_disabled"))
package audit

// Package auditstore holds the concrete sinks for the security audit trail.
//
//   - FileSink appends one JSON object per line and syncs after every event.
//   - SQLStore mirrors events into SQLite for the audit query endpoint.
//   - Logged wraps any recorder and reports sink failures to the
//     operational log.
//
// Example Usage:
//
//	sink, err := auditstore.OpenFile("/var/log/filemaster/security.log")
//	store, err := auditstore.OpenSQL(ctx, "/var/lib/filemaster/audit.db")
//	rec := auditstore.Logged(audit.Multi(sink, store), logger)
package auditstore

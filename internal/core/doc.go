// Package core turns CSV rows into analytics events and hands them to an
// ingestion client.
//
// It has no dependency on a particular analytics vendor: anything that
// satisfies [Client] can receive events. The PostHog adapter lives in
// internal/analytics.
//
// # Input
//
// The first row is the header. Three columns are reserved:
//
//   - event: event name, required
//   - distinct_id: subject identifier, required
//   - timestamp: optional ISO-8601 time; a trailing Z means UTC
//
// Every other column is copied into the event's [Properties] unchanged.
// Input is streamed: a leading UTF-8 BOM is dropped and invalid UTF-8 bytes
// are replaced on the fly, so memory use does not grow with file size.
//
// # Run
//
// [Importer.Import] reads one row at a time:
//
//  1. [Split] separates reserved fields from properties and validates them
//  2. [ParseTimestamp] normalizes the timestamp, degrading to "absent"
//  3. the event is passed to [Client.Capture]
//
// Rows missing event or distinct_id are skipped; capture errors are logged
// with the row number. Neither stops the run. After the last row the client
// is flushed exactly once and a [Summary] is logged and given to every
// [RunRecorder].
//
// [Probe] sends a single fixed event for connectivity checks.
package core

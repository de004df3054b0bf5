// Package queue persists highlight jobs in SQLite.
//
// Each job tracks one video through ingest, probe, audio extraction,
// classification, and highlight selection. The Store owns the connection,
// the embedded schema, status transitions, heartbeats, and recovery of jobs
// left mid-stage by a crashed daemon.
//
// The database only holds in-flight and recent jobs; durable results live in
// the library directories. Schema changes bump schemaVersion and require the
// database to be recreated.
package queue

// Package daemon coordinates the long-running highlighter process.
//
// It wires configuration, the queue store, the video library, and the
// workflow manager into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon serves the HTTP API and the
// /uploads/ static route, and runs the retention sweep on the configured
// cron schedule.
//
// Keep orchestration logic here: pipeline stages live in their own packages
// and request handling delegates to internal/api.
package daemon

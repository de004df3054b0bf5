// Package api holds the service layer shared by the HTTP server and the CLI.
//
// Services read the queue store and the video library directly and return
// transport-friendly DTOs with camelCase JSON tags. Mutating operations on
// videos keep the library directory and its queue job consistent, and notify
// the workflow manager when new work is enqueued.
package api

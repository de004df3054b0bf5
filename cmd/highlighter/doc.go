// Command highlighter runs the highlight-extraction daemon and manages its
// queue and video library from the command line.
//
// The daemon command runs the pipeline and the HTTP API in the foreground.
// Every other command opens the queue database and the video library
// directly, so they work whether or not a daemon is running; a running
// daemon picks up queued work on its next poll.
package main

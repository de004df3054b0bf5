// Package preflight checks the filesystem and external programs highlighter
// depends on.
//
// The daemon runs RunAll at startup and refuses to start when a directory is
// unusable. The upload path calls EnsureFreeSpace before accepting a file,
// and the `deps` command and status endpoint use CheckSystemDeps.
package preflight

// Package highlights turns a sound-event classifier matrix into highlight
// segments.
//
// A Matrix holds per-class, per-frame probabilities in class-major order. Two
// selection strategies run over it:
//
//   - SelectTopSegments scans every fixed-length window, scores it with a
//     category reducer over the window's per-class averages, and keeps the best
//     non-overlapping windows until a quota or score threshold is reached.
//   - FindPeakSegments anchors windows on the loudest frames across all classes
//     and grows them around each peak.
//
// Everything here is pure and deterministic: no I/O, no shared mutable state.
// A Matrix is read-only after construction, so callers may run selections for
// several categories concurrently against the same Matrix. Frame indices are
// never converted to wall-clock time inside the selectors; use Timeline for
// that once the recording duration is known.
package highlights

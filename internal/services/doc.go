// Package services holds the helpers shared by workflow stages and the
// wrappers around external tools.
//
// Context helpers stamp job IDs, video IDs, stage names, and correlation
// identifiers so logging can pick them up without threading extra arguments.
// Wrap tags stage failures with a marker error; the queue classifies the
// marker into failed or review.
package services

// Package workflow moves queue jobs through the highlighter pipeline.
//
// The Manager polls the queue for the oldest job waiting at any stage start
// status, marks it as processing, and hands it to the registered stage
// handler (ingest, probe, extract, classify, highlight). A heartbeat is kept
// while a stage runs so that jobs abandoned by a crashed daemon can be
// reclaimed. Stage errors are classified through queue.FailureStatus: input
// problems go to review and everything else is marked failed.
package workflow

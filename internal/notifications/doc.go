// Package notifications publishes job milestones to an ntfy topic.
//
// Workflow code depends only on the Service interface. When no topic is
// configured NewService returns a no-op implementation, so callers never
// check whether notifications are enabled.
package notifications

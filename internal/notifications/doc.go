// Package notifications posts run summaries and fatal errors to an ntfy topic.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can notify unconditionally.
package notifications

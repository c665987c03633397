// Package notifications manages the single user-facing notification slot
// and optional forwarding of noteworthy events to an ntfy topic.
package notifications

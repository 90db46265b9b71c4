// Package ingest implements the event-ingestion side of the pipeline: the
// idempotency guard that makes at-least-once delivery safe, and the command
// router that classifies each admitted event.
package ingest

import "time"

// InboundEvent is one delivery attempt from the Bot Gateway. It is immutable
// and may be redelivered with an identical EventID.
type InboundEvent struct {
	EventID     int64
	ChatID      int64
	MessageID   int64
	AuthorName  string
	AuthorIsBot bool
	Text        string
	OccurredAt  time.Time
}

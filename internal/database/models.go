package database

import "time"

// StoredMessage represents one persisted chat message. Multiple rows may
// exist for the same (chat_id, message_id) pair, for example when an edited
// message is redelivered with the same identity; duplicates are resolved at
// read time, never at write time.
type StoredMessage struct {
	ID         int64     `db:"id"`
	ChatID     int64     `db:"chat_id"`
	MessageID  int64     `db:"message_id"`
	AuthorName string    `db:"author_name"`
	Text       string    `db:"text"`
	OccurredAt time.Time `db:"occurred_at"`
	ExpiresAt  time.Time `db:"expires_at"`
}

// ProcessedEventMarker records that an inbound event_id has been admitted for
// processing. A live marker (expires_at in the future) permanently blocks
// re-admission of that event_id; an expired marker behaves as absent.
type ProcessedEventMarker struct {
	EventID    int64     `db:"event_id"`
	AdmittedAt time.Time `db:"admitted_at"`
	ExpiresAt  time.Time `db:"expires_at"`
}

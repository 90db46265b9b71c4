package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. Methods accept a
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateEventMarker conditionally creates a ProcessedEventMarker for
	// eventID. It returns true when the marker was created (the event is
	// newly admitted) and false when a live marker already exists. An
	// expired marker row is overwritten as if absent.
	CreateEventMarker(ctx context.Context, eventID int64, admittedAt, expiresAt time.Time) (bool, error)

	// SaveMessage inserts a new message record unconditionally.
	SaveMessage(ctx context.Context, message *StoredMessage) error

	// GetRecentMessages retrieves up to 'limit' unexpired messages for the
	// chat, ordered by occurred_at descending.
	GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]StoredMessage, error)

	// PurgeExpired deletes markers and messages whose expiry has passed.
	// It returns the number of rows removed from each table.
	PurgeExpired(ctx context.Context, now time.Time) (markers int64, messages int64, err error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx over SQLite.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateEventMarker performs the conditional write that backs idempotent
// admission. The upsert only replaces a marker whose expiry has passed, so a
// live marker rejects the write (zero rows affected) while an expired one is
// treated as absent. This mirrors a TTL'd conditional put: the row may
// linger after expiry until the purge task runs, but it no longer blocks
// admission.
func (s *sqlxStore) CreateEventMarker(ctx context.Context, eventID int64, admittedAt, expiresAt time.Time) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	query := `
        INSERT INTO processed_events (event_id, admitted_at, expires_at)
        VALUES (?, ?, ?)
        ON CONFLICT(event_id) DO UPDATE SET
            admitted_at = excluded.admitted_at,
            expires_at  = excluded.expires_at
        WHERE processed_events.expires_at <= excluded.admitted_at;
    `

	result, err := s.db.ExecContext(ctx, query, eventID, admittedAt.UTC(), expiresAt.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating event marker", "event_id", eventID, "error", err)
		return false, fmt.Errorf("failed to create event marker for event %d: %w", eventID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.ErrorContext(ctx, "Could not read affected rows for event marker", "event_id", eventID, "error", err)
		return false, fmt.Errorf("failed to read event marker result for event %d: %w", eventID, err)
	}

	created := affected > 0
	s.logger.DebugContext(ctx, "Event marker write finished", "event_id", eventID, "created", created)
	return created, nil
}

// SaveMessage inserts a new message record. Duplicates for the same
// (chat_id, message_id) are expected and resolved at read time.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *StoredMessage) error {
	if message == nil {
		return errors.New("cannot save nil message")
	}
	if message.ChatID == 0 {
		return errors.New("message must have a non-zero chat_id")
	}
	if message.Text == "" {
		return errors.New("message must have non-empty text")
	}
	if message.OccurredAt.IsZero() {
		return errors.New("message must have a non-zero occurred_at")
	}

	query := `
        INSERT INTO messages (chat_id, message_id, author_name, text, occurred_at, expires_at)
        VALUES (:chat_id, :message_id, :author_name, :text, :occurred_at, :expires_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to save message (chat %d): %w", message.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		message.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"chat_id", message.ChatID, "error", err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"chat_id", message.ChatID, "message_id", message.MessageID, "row_id", message.ID)
	return nil
}

// GetRecentMessages retrieves the most recent 'limit' unexpired messages for
// a chat, newest first. Expired rows are filtered in the query so reads never
// depend on the purge task having run.
func (s *sqlxStore) GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]StoredMessage, error) {
	if chatID == 0 {
		return nil, errors.New("chat_id cannot be zero")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []StoredMessage
	query := `
        SELECT id, chat_id, message_id, author_name, text, occurred_at, expires_at
        FROM messages
        WHERE chat_id = ? AND expires_at > ?
        ORDER BY occurred_at DESC, id DESC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &messages, query, chatID, time.Now().UTC(), limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching messages",
			"chat_id", chatID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages", "chat_id", chatID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages successfully", "chat_id", chatID, "count", len(messages))
	return messages, nil
}

// PurgeExpired removes expired event markers and messages. Retention is the
// only deletion mechanism in this design; reads already ignore expired rows,
// so this purely reclaims space.
func (s *sqlxStore) PurgeExpired(ctx context.Context, now time.Time) (int64, int64, error) {
	if ctx.Err() != nil {
		return 0, 0, ctx.Err()
	}

	cutoff := now.UTC()

	markerResult, err := s.db.ExecContext(ctx, `DELETE FROM processed_events WHERE expires_at <= ?;`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error purging expired event markers", "error", err)
		return 0, 0, fmt.Errorf("failed to purge expired event markers: %w", err)
	}
	markers, _ := markerResult.RowsAffected()

	messageResult, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE expires_at <= ?;`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error purging expired messages", "error", err)
		return markers, 0, fmt.Errorf("failed to purge expired messages: %w", err)
	}
	messages, _ := messageResult.RowsAffected()

	s.logger.InfoContext(ctx, "Purged expired records", "markers", markers, "messages", messages)
	return markers, messages, nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

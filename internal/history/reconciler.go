// Package history reconstructs a clean, chronologically ordered message
// window from the store and renders it into a compact transcript for the
// summarizer.
package history

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/edgard/resumobot/internal/database"
)

// oversampleNum/oversampleDen give the 1.5x raw-read factor that compensates
// for duplicate inflation from edits and retries without a second round trip
// in the common case. This is a heuristic with no correctness guarantee under
// heavy duplication rates: if the oversample still under-fetches, the window
// may contain fewer entries than requested even when more distinct history
// exists. That is an accepted approximation, not a bug.
const (
	oversampleNum = 3
	oversampleDen = 2
)

// Reconciler retrieves a superset of recent records, deduplicates them by
// logical message identity, orders them by event time, and truncates to a
// requested window.
type Reconciler struct {
	store  database.Store
	logger *slog.Logger
}

// NewReconciler creates a Reconciler over the given store.
func NewReconciler(store database.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		store:  store,
		logger: logger.With("component", "history_reconciler"),
	}
}

// FetchWindow returns up to limit logical messages for the chat in ascending
// occurred_at order, with at most one record per logical identity (the one
// with the greatest occurred_at). On any retrieval fault it returns an empty
// window, never an error: summarization degrades to "nothing to summarize"
// rather than failing the request.
func (r *Reconciler) FetchWindow(ctx context.Context, chatID int64, limit int) []database.StoredMessage {
	if limit <= 0 {
		return nil
	}

	raw := (limit*oversampleNum + oversampleDen - 1) / oversampleDen

	records, err := r.store.GetRecentMessages(ctx, chatID, raw)
	if err != nil {
		r.logger.ErrorContext(ctx, "History read failed, degrading to empty window",
			"chat_id", chatID, "limit", limit, "error", err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	// The store returns newest-first; the fold needs ascending timestamps.
	slices.Reverse(records)

	// Fold into an identity-keyed ordered collection where a later entry
	// overwrites an earlier one with the same key. Because the fold walks
	// strictly non-decreasing timestamps, the record with the greatest
	// occurred_at wins for every logical identity, while the window keeps
	// each identity at its first-seen position.
	index := make(map[int64]int, len(records))
	window := make([]database.StoredMessage, 0, len(records))
	for _, rec := range records {
		key := rec.MessageID
		if key == 0 {
			// Fallback keys share the message_id keyspace; merging would
			// require a platform message id equal to a unix timestamp,
			// which real identifiers never reach.
			key = rec.OccurredAt.Unix()
		}
		if pos, seen := index[key]; seen {
			window[pos] = rec
		} else {
			index[key] = len(window)
			window = append(window, rec)
		}
	}

	// Keep only the most recent logical messages. Fewer than limit distinct
	// messages is fine; no padding, no error.
	if len(window) > limit {
		window = window[len(window)-limit:]
	}

	r.logger.DebugContext(ctx, "Reconstructed message window",
		"chat_id", chatID, "raw_count", len(records), "window_count", len(window))
	return window
}

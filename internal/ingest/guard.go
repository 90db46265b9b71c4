package ingest

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/resumobot/internal/database"
)

// AdmitResult is the outcome of an admission attempt.
type AdmitResult int

const (
	// Admitted means the event has not been seen before; the caller must
	// process it.
	Admitted AdmitResult = iota
	// AlreadyProcessed means a live marker exists for the event; the caller
	// must skip processing and report success upstream, since the original
	// attempt already completed or is in flight.
	AlreadyProcessed
	// StoreUnavailable means the conditional write failed for a reason other
	// than a conflict. Policy is to fail open: the caller treats this as
	// Admitted, accepting a rare duplicate over a dropped event.
	StoreUnavailable
)

// String returns a human-readable name for logging.
func (r AdmitResult) String() string {
	switch r {
	case Admitted:
		return "admitted"
	case AlreadyProcessed:
		return "already_processed"
	case StoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Guard records which inbound event identifiers have been admitted for
// processing and rejects redelivery. The store's conditional write is the
// sole concurrency-control primitive: under concurrent redelivery of the
// same event_id, exactly one caller observes Admitted.
type Guard struct {
	store     database.Store
	markerTTL time.Duration
	logger    *slog.Logger
}

// NewGuard creates a Guard whose markers expire after markerTTL.
func NewGuard(store database.Store, markerTTL time.Duration, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Guard{
		store:     store,
		markerTTL: markerTTL,
		logger:    logger.With("component", "idempotency_guard"),
	}
}

// Admit attempts to durably record that eventID has begun processing. The
// marker is created exactly once per live retention window; re-admission
// never succeeds while the marker is live.
func (g *Guard) Admit(ctx context.Context, eventID int64) AdmitResult {
	now := time.Now().UTC()

	created, err := g.store.CreateEventMarker(ctx, eventID, now, now.Add(g.markerTTL))
	if err != nil {
		// Fail open: under-processing is worse than a rare duplicate here,
		// so a store fault must not drop the event.
		g.logger.WarnContext(ctx, "Event marker write failed, failing open",
			"event_id", eventID, "error", err)
		return StoreUnavailable
	}

	if !created {
		g.logger.InfoContext(ctx, "Event already processed, rejecting redelivery", "event_id", eventID)
		return AlreadyProcessed
	}

	g.logger.DebugContext(ctx, "Event admitted", "event_id", eventID)
	return Admitted
}

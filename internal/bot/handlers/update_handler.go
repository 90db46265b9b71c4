package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/resumobot/internal/database"
	"github.com/edgard/resumobot/internal/history"
	"github.com/edgard/resumobot/internal/ingest"
)

type updateHandler struct {
	deps HandlerDeps
}

// NewUpdateHandler returns the default handler that runs every inbound update
// through the admission, classification, and dispatch pipeline. All outcomes
// are terminal within the handler: nothing is ever retried upstream.
func NewUpdateHandler(deps HandlerDeps) bot.HandlerFunc {
	return updateHandler{deps}.Handle
}

func (h updateHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "update_pipeline")

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		// Malformed or non-text updates are dropped before admission so a
		// later, well-formed redelivery of the same update is not locked out.
		log.DebugContext(ctx, "Ignoring update without usable message content", "update_id", update.ID)
		return
	}

	event := ingest.InboundEvent{
		EventID:     update.ID,
		ChatID:      msg.Chat.ID,
		MessageID:   int64(msg.ID),
		AuthorName:  authorName(msg.From),
		AuthorIsBot: msg.From.IsBot,
		Text:        msg.Text,
		OccurredAt:  time.Unix(int64(msg.Date), 0).UTC(),
	}

	admitCtx, cancel := context.WithTimeout(ctx, h.deps.Config.Database.OpTimeout)
	result := h.deps.Guard.Admit(admitCtx, event.EventID)
	cancel()
	if result == ingest.AlreadyProcessed {
		log.InfoContext(ctx, "Skipping redelivered update", "update_id", event.EventID, "chat_id", event.ChatID)
		return
	}

	action := h.deps.Router.Classify(event)
	switch action.Kind {
	case ingest.ActionPersist:
		h.persistMessage(ctx, event)
	case ingest.ActionSummarize:
		h.summarize(ctx, event.ChatID, action.Limit)
	case ingest.ActionInformational:
		h.sendInfo(ctx, event.ChatID, action.Info)
	case ingest.ActionIgnore:
		log.DebugContext(ctx, "Ignoring update", "update_id", event.EventID, "chat_id", event.ChatID)
	}
}

// persistMessage stores an ordinary chat message with its retention expiry. A
// store fault is logged and swallowed: the sender is never notified about
// archival problems.
func (h updateHandler) persistMessage(ctx context.Context, event ingest.InboundEvent) {
	deps := h.deps
	log := deps.Logger.With("handler", "update_pipeline")

	record := &database.StoredMessage{
		ChatID:     event.ChatID,
		MessageID:  event.MessageID,
		AuthorName: event.AuthorName,
		Text:       event.Text,
		OccurredAt: event.OccurredAt,
		ExpiresAt:  event.OccurredAt.Add(deps.Config.Retention.MessageTTL),
	}

	dbCtx, cancel := context.WithTimeout(ctx, deps.Config.Database.OpTimeout)
	defer cancel()

	if err := deps.Store.SaveMessage(dbCtx, record); err != nil {
		log.ErrorContext(ctx, "Failed to persist message", "error", err,
			"chat_id", event.ChatID, "message_id", event.MessageID)
	}
}

// summarize runs the full summarization path: acknowledge, reconstruct the
// window, render the transcript, call the summarizer, deliver the result.
func (h updateHandler) summarize(ctx context.Context, chatID int64, limit int) {
	deps := h.deps
	log := deps.Logger.With("handler", "update_pipeline")

	log.InfoContext(ctx, "Handling summarize command", "chat_id", chatID, "limit", limit)

	if err := deps.Sender.SendMessage(ctx, chatID, deps.Config.Messages.ReadingHistory, false); err != nil {
		log.WarnContext(ctx, "Failed to send acknowledgement", "error", err, "chat_id", chatID)
	}

	dbCtx, cancel := context.WithTimeout(ctx, deps.Config.Database.OpTimeout)
	window := deps.Reconciler.FetchWindow(dbCtx, chatID, limit)
	cancel()
	if len(window) == 0 {
		if err := deps.Sender.SendMessage(ctx, chatID, deps.Config.Messages.NothingToSum, false); err != nil {
			log.ErrorContext(ctx, "Failed to send empty-history reply", "error", err, "chat_id", chatID)
		}
		return
	}

	transcript := history.Render(window)

	summary, err := deps.Summarizer.Summarize(ctx, transcript)
	if err != nil {
		log.ErrorContext(ctx, "Summarizer failed", "error", err, "chat_id", chatID)
		if sendErr := deps.Sender.SendMessage(ctx, chatID, deps.Config.Messages.SummarizerFailed, false); sendErr != nil {
			log.ErrorContext(ctx, "Failed to send summarizer apology", "error", sendErr, "chat_id", chatID)
		}
		return
	}

	// Model output is not guaranteed to be valid markup; fall back to plain
	// text so a formatting rejection does not lose the summary.
	if err := deps.Sender.SendMessage(ctx, chatID, summary, true); err != nil {
		log.WarnContext(ctx, "Markdown delivery failed, retrying as plain text", "error", err, "chat_id", chatID)
		if err := deps.Sender.SendMessage(ctx, chatID, summary, false); err != nil {
			log.ErrorContext(ctx, "Failed to deliver summary", "error", err, "chat_id", chatID)
		}
	}
}

func (h updateHandler) sendInfo(ctx context.Context, chatID int64, info ingest.InfoKind) {
	deps := h.deps
	log := deps.Logger.With("handler", "update_pipeline")

	var text string
	switch info {
	case ingest.InfoWelcome:
		text = deps.Config.Messages.Welcome
	case ingest.InfoHelp:
		text = deps.Config.Messages.Help
	default:
		return
	}

	if err := deps.Sender.SendMessage(ctx, chatID, text, false); err != nil {
		log.ErrorContext(ctx, "Failed to send informational reply", "error", err, "chat_id", chatID)
	}
}

// authorName picks a display name for the sender, preferring the first name
// the way chat clients render it.
func authorName(user *models.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return user.Username
	}
	return "Unknown"
}

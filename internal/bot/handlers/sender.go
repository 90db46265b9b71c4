package handlers

import "context"

// MessageSender abstracts outbound delivery to the chat platform. markdown
// selects formatted rendering; callers that need a plain-text fallback retry
// with markdown disabled.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markdown bool) error
}

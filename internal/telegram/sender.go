package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender delivers outbound messages through a Telegram bot instance. Every
// send is bounded by a fixed timeout so a slow API call cannot stall the
// update pipeline.
type Sender struct {
	bot         *bot.Bot
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewSender creates a Sender over an existing bot instance.
func NewSender(b *bot.Bot, sendTimeout time.Duration, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		bot:         b,
		sendTimeout: sendTimeout,
		logger:      logger.With("component", "telegram_sender"),
	}
}

// SendMessage sends text to the chat. When markdown is set the message is
// rendered with Telegram's Markdown parse mode; the API rejects malformed
// markup, so callers retry with markdown disabled when formatting matters
// less than delivery.
func (s *Sender) SendMessage(ctx context.Context, chatID int64, text string, markdown bool) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}
	if text == "" {
		return fmt.Errorf("cannot send empty message")
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markdown {
		params.ParseMode = models.ParseModeMarkdown
	}

	sent, err := s.bot.SendMessage(sendCtx, params)
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Message sent", "chat_id", chatID, "message_id", sent.ID, "markdown", markdown)
	return nil
}

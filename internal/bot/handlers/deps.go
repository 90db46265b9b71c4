// Package handlers implements the per-update processing pipeline for the
// ResumoBot Telegram bot.
package handlers

import (
	"log/slog"

	"github.com/edgard/resumobot/internal/config"
	"github.com/edgard/resumobot/internal/database"
	"github.com/edgard/resumobot/internal/gemini"
	"github.com/edgard/resumobot/internal/history"
	"github.com/edgard/resumobot/internal/ingest"
)

// HandlerDeps provides dependencies for the update pipeline handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Guard      *ingest.Guard
	Router     *ingest.Router
	Reconciler *history.Reconciler
	Summarizer gemini.Summarizer
	Sender     MessageSender
}

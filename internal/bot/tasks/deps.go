// Package tasks implements scheduled background tasks for the ResumoBot
// Telegram bot: retention purging and database maintenance.
package tasks

import (
	"log/slog"

	"github.com/edgard/resumobot/internal/config"
	"github.com/edgard/resumobot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}

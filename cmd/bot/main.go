// Package main contains the entrypoint for the ResumoBot Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/resumobot/internal/bot"
	"github.com/edgard/resumobot/internal/bot/handlers"
	"github.com/edgard/resumobot/internal/bot/tasks"
	"github.com/edgard/resumobot/internal/config"
	"github.com/edgard/resumobot/internal/database"
	"github.com/edgard/resumobot/internal/gemini"
	"github.com/edgard/resumobot/internal/history"
	"github.com/edgard/resumobot/internal/ingest"
	"github.com/edgard/resumobot/internal/logger"
	"github.com/edgard/resumobot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// summarizer, pipeline, scheduler), handles graceful shutdown, and returns an
// exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	summarizer, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
	)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Guard:      ingest.NewGuard(store, cfg.Retention.MarkerTTL, log),
		Router:     ingest.NewRouter(cfg.Summary.DefaultLimit, cfg.Summary.MaxLimit),
		Reconciler: history.NewReconciler(store, log),
		Summarizer: summarizer,
		Sender:     telegram.NewSender(tg, cfg.Telegram.SendTimeout, log),
	}

	// Every text update runs through the one pipeline handler; command
	// dispatch happens inside it, not in the Telegram handler registry.
	tg.RegisterHandler(tgbot.HandlerTypeMessageText, "", tgbot.MatchTypePrefix, handlers.NewUpdateHandler(hDeps))

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	app := bot.NewBot(log, cfg, db, store, summarizer, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-font-inspector/internal/config"
	"go-font-inspector/internal/container"
	"go-font-inspector/internal/logger"
	"go-font-inspector/internal/session"
	"go-font-inspector/internal/telegram"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}
	logger.WithField("username", api.Self.UserName).Info("Telegram bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	// Analyses get the full request budget: fetch, inference and OCR.
	bot := telegram.NewBot(api, c.Service(), c.Fetcher(), session.NewManager(), cfg.RequestTimeout)
	bot.Run(ctx, updates)

	logger.Info("Shutting down bot...")
	api.StopReceivingUpdates()
	if err := c.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close container")
	}
	logger.Info("Bot exited")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanifmaulana/kasbot/internal/bot"
	"github.com/hanifmaulana/kasbot/internal/cache"
	"github.com/hanifmaulana/kasbot/internal/config"
	"github.com/hanifmaulana/kasbot/internal/logger"
	"github.com/hanifmaulana/kasbot/internal/parser"
	"github.com/hanifmaulana/kasbot/internal/photostore"
	"github.com/hanifmaulana/kasbot/internal/receipt"
	"github.com/hanifmaulana/kasbot/internal/sheets"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatal().Err(err).Msg("Incomplete configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sheets.New(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, logger.Component(log, "sheets"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the spreadsheet")
	}

	c := cache.New(cfg.CacheTTL, logger.Component(log, "cache"))
	receipts := receipt.NewReader(cfg.GeminiModel)

	// Photo archival is optional: without a bucket the bot still reads
	// receipts, it just doesn't keep the originals.
	var photos bot.PhotoArchive
	if cfg.GCSBucket != "" {
		ps, err := photostore.New(ctx, cfg.GCSBucket)
		if err != nil {
			log.Warn().Err(err).Msg("Photo archive unavailable, continuing without it")
		} else {
			defer ps.Close()
			photos = ps
		}
	}

	b, err := bot.New(cfg.TelegramToken, parser.New(), store, c, receipts, photos, logger.Component(log, "bot"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}

	log.Info().Msg("Starting bot")
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Bot stopped")
	}
	log.Info().Msg("Bot exited")
}

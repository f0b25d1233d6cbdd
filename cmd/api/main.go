package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanifmaulana/kasbot/internal/api/handlers"
	"github.com/hanifmaulana/kasbot/internal/api/middleware"
	"github.com/hanifmaulana/kasbot/internal/cache"
	"github.com/hanifmaulana/kasbot/internal/config"
	"github.com/hanifmaulana/kasbot/internal/logger"
	"github.com/hanifmaulana/kasbot/internal/sheets"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.RequireAPI(); err != nil {
		log.Fatal().Err(err).Msg("Incomplete configuration")
	}

	port := flag.Int("port", cfg.APIPort, "HTTP server port")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sheets.New(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, logger.Component(log, "sheets"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the spreadsheet")
	}

	// One shared cache per process: the spreadsheet API quota is the reason
	// this service exists at all.
	c := cache.New(cfg.CacheTTL, logger.Component(log, "cache"))

	h := handlers.New(store, c, logger.Component(log, "api"))
	mux := http.NewServeMux()
	h.Register(mux)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.RateLimit(cfg.RateLimit, cfg.RateWindow, log)(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Msg("Starting dashboard API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

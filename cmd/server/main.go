package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"anagramgame/internal/config"
	"anagramgame/internal/database"
	"anagramgame/internal/handlers"
	"anagramgame/internal/logging"
	"anagramgame/internal/repository"
	"anagramgame/internal/scoring"
	"anagramgame/internal/service"
)

func main() {
	cfg := config.Load()
	logFile, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Migrations run as part of initialization
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()
	log.Info().Str("type", cfg.DatabaseType).Msg("database ready")

	blockedURL := cfg.BlockedWordsURL
	if blockedURL == "" {
		blockedURL = database.DefaultBlockedWordsURL
	}
	if err := db.SeedBlockedWords(ctx, blockedURL); err != nil {
		log.Warn().Err(err).Msg("failed to seed blocked words")
	}

	// Repositories
	store := repository.NewPhraseStore(db)
	playerRepo := repository.NewPlayerRepository(db)
	linkRepo := repository.NewContributionLinkRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Services
	scorer := scoring.Default()
	settings := service.NewSettingsCache(settingsRepo, cfg.SettingsTTL)
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email service")
	}
	phraseService := service.NewPhraseService(store, playerRepo, scorer, db, settings, emailService)
	contributions, err := service.NewContributionService(linkRepo, phraseService, cfg.ContributionSecret, cfg.ContributionLinkTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize contribution links")
	}

	router := handlers.NewRouter(ctx, handlers.Services{
		Players:       service.NewPlayerService(playerRepo),
		Phrases:       phraseService,
		Distributor:   service.NewDistributor(store),
		Hints:         service.NewHintService(store),
		Contributions: contributions,
		Scorer:        scorer,
	}, handlers.RouterConfig{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AppBaseURL:         cfg.AppBaseURL,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("artifact", scorer.Artifact().Hash).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

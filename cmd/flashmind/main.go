package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bigm-o/Flash-mind/internal/app"
	"github.com/bigm-o/Flash-mind/internal/config"
	"github.com/bigm-o/Flash-mind/internal/ratelimit"
	"github.com/bigm-o/Flash-mind/internal/server"
	"github.com/bigm-o/Flash-mind/internal/store"
	"github.com/bigm-o/Flash-mind/internal/util"
	"github.com/bigm-o/Flash-mind/pkg/ai"
	"github.com/bigm-o/Flash-mind/pkg/mail"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		util.Fatal("failed to init gemini client", "err", err)
	}
	generator := ai.NewGeminiGenerator(geminiClient, cfg.GenerationModel)

	var mailer mail.Mailer
	if cfg.SendGridAPIKey != "" {
		sg, err := mail.NewSendGridClient(cfg.SendGridAPIKey, cfg.SenderEmail)
		if err != nil {
			util.Fatal("failed to init sendgrid client", "err", err)
		}
		mailer = sg
	} else {
		slog.Warn("sendgrid not configured, flashcard email delivery disabled")
	}

	var sessions store.Store
	if cfg.RedisAddr != "" {
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, time.Duration(cfg.SessionTTLHours)*time.Hour)
		slog.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessions = store.NewMemoryStore()
		slog.Info("using in-memory session store")
	}

	var limiter server.Limiter
	if cfg.ModelRequestsPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.ModelRequestsPerMinute, time.Minute)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}

	appCore, err := app.New(app.Config{
		Store:     sessions,
		Generator: generator,
		Mailer:    mailer,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Limiter:        limiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Second,
		// Write timeout stays off so chat streams are never cut mid-reply.
		IdleTimeout: 60 * time.Second,
	}

	slog.Info("flashmind server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/lazynotes/internal/api"
	"github.com/dgallion1/lazynotes/internal/auth"
	"github.com/dgallion1/lazynotes/internal/cache"
	"github.com/dgallion1/lazynotes/internal/config"
	"github.com/dgallion1/lazynotes/internal/markup"
	"github.com/dgallion1/lazynotes/internal/notes"
	"github.com/go-redis/redis/v8"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv("LN_SETTINGS_FILE"))
	if err != nil {
		log.Error("failed to read configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Redis holds users, sessions, the render cache and login quotas.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		log.Error("failed connecting to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	store := notes.NewStore(cfg.DataDir)
	store.MaxBytes = cfg.MaxNoteBytes
	renderer := markup.New(markup.Options{IDPrefix: cfg.IDPrefix})
	notesSvc := notes.NewService(store, renderer, cache.New(rdb), cfg.CacheTTL, log)

	authSvc := auth.NewService(rdb, store, auth.NewQuota(rdb, cfg.LoginQPS, log), auth.Options{
		EnableSignups: cfg.EnableSignups,
		SessionTTL:    cfg.SessionTTL,
	}, log)

	srv := api.NewServer(notesSvc, authSvc, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		rdb.Close()
	}()

	log.Info("starting lazynotes", "port", cfg.Port, "data_dir", cfg.DataDir, "signups", cfg.EnableSignups)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/yourname/medtracker/internal"
	"github.com/yourname/medtracker/internal/api"
	"github.com/yourname/medtracker/internal/auth"
	"github.com/yourname/medtracker/internal/config"
	"github.com/yourname/medtracker/internal/ledger"
	"github.com/yourname/medtracker/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if cfg.StorageBackend == "file" {
		if dir := filepath.Dir(cfg.MedicationsFile); dir != "." {
			_ = os.MkdirAll(dir, 0755)
		}
	}

	medRepo, logRepo, closer, err := storage.NewRepositories(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}

	var provider auth.Provider
	switch cfg.AuthMode {
	case "remote":
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	case "token":
		store, ok := medRepo.(auth.UserStore)
		if !ok {
			logger.Fatalf("AUTH_MODE=token requires the postgres storage backend")
		}
		provider = auth.NewTokenAuthProvider(store, logger)
	default:
		provider = auth.NewLocalAuthProvider(cfg.JWTSecret, logger)
	}

	registry := ledger.NewRegistry(medRepo, logRepo, logger)
	server := api.NewServer(logger, registry, provider, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	go func() {
		logger.Infof("server running on :%s (storage=%s, auth=%s)", cfg.Port, cfg.StorageBackend, cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	if err := closer.Close(); err != nil {
		logger.Errorf("storage close: %v", err)
	}
}

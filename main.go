package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mininotion/config"
	"mininotion/config/database"
	"mininotion/internal/auth"
	docRepository "mininotion/internal/document/repository"
	shareRepository "mininotion/internal/share/repository"
	userRepository "mininotion/internal/user/repository"
	"mininotion/pkg/logger"
	"mininotion/router"
	"mininotion/socket"
	"mininotion/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Sugar.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := socket.NewHub()
	go hub.Run()

	deps := router.Deps{
		Hub:             hub,
		Tokens:          auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		MaxContentBytes: cfg.MaxContentBytes,
		CORSOrigins:     cfg.CORSOrigins,
	}

	if cfg.UseMemoryStore() {
		logger.Sugar.Warn("Using the in-memory store; data is lost on restart")
		mem := store.NewMemory()
		deps.Users, deps.Documents, deps.Shares, deps.Ping = mem, mem, mem, mem.Ping
	} else {
		db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectRetries)
		if err != nil {
			logger.Sugar.Fatalf("Could not connect to database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			logger.Sugar.Fatalf("Could not create schema: %v", err)
		}
		deps.Users = userRepository.NewUserRepository(db)
		deps.Documents = docRepository.NewDocumentRepository(db)
		deps.Shares = shareRepository.NewShareRepository(db)
		deps.Ping = db.PingContext
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Sugar.Errorf("Shutdown failed: %v", err)
		}
	}()

	logger.Sugar.Infof("Go Backend listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server failed: %v", err)
	}
}

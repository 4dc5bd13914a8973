package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/thereayou/wallet-profile/internal/config"
	"github.com/thereayou/wallet-profile/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	srv, err := NewServer(cfg, zl)
	if err != nil {
		zl.Fatal("server init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zl.Fatal("server run error", zap.Error(err))
	}
}

// Package main - Entry point for the move-quote API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"move-quote/internal/app"
	"move-quote/internal/config"
	"move-quote/internal/logging"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "", "Config file")
	addr := flag.String("addr", "", "Server address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	defer a.Close()

	logger.Info("move-quote server starting", zap.String("version", version), zap.String("addr", cfg.Server.Addr))
	if err := a.Serve(ctx, version); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

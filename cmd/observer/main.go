// Command observer streams top-of-book quotes from Binance, Bybit, and
// Gate.io and logs cross-venue arbitrage opportunities as they are found.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/morroisback/exchange-observer/internal/app"
	"github.com/morroisback/exchange-observer/internal/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping")
		cancel()
	}()

	application, err := app.Configure(cfg, logger)
	if err != nil {
		logger.Fatal("failed to configure application", zap.Error(err))
	}

	if err := application.Start(ctx); err != nil {
		logger.Fatal("failed to start application", zap.Error(err))
	}
	logger.Info("observer running", zap.Strings("venues", cfg.Venues))

	<-ctx.Done()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		if err := application.Stop(); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}()

	select {
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out, exiting")
	case <-shutdownDone:
		logger.Info("shutdown complete")
	}
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/app"
	"github.com/abrezinsky/everyonevotes/internal/config"
	"github.com/abrezinsky/everyonevotes/internal/logger"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	green  = "\033[32m"
)

var (
	version = "dev"
)

// shutdownTimeout bounds how long in-flight requests get on exit
const shutdownTimeout = 10 * time.Second

func printBanner(cfg config.Config) {
	border := "══════════════════════════════════════════════"
	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	fmt.Printf("  %s║%s  %-44s%s║%s\n", cyan, yellow, "EveryoneVotes "+version, cyan, reset)
	fmt.Printf("  %s║%s  %-44s%s║%s\n", cyan, reset, "Online voting demo", cyan, reset)
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
	fmt.Printf("  %sAPI:%s       http://localhost%s/api\n", green, reset, cfg.Addr())
	fmt.Printf("  %sDashboard:%s ws://localhost%s/ws\n", green, reset, cfg.Addr())
	fmt.Printf("  %sMetrics:%s   http://localhost%s/metrics\n\n", green, reset, cfg.Addr())
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "everyonevotes:", err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Printf("everyonevotes %s\n", version)
		os.Exit(0)
	}

	appLog := logger.NewWithOptions(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
	if cfg.HTTPLog {
		appLog.EnableHTTPLogging()
	}

	a, err := app.New(cfg, appLog)
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	defer a.Close()

	if cfg.LogFormat != logger.FormatJSON {
		printBanner(cfg)
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			appLog.Error("Server failed", "error", err)
			a.Close()
			os.Exit(1)
		}
	case sig := <-stop:
		appLog.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			appLog.Warn("Graceful shutdown failed", "error", err)
		}
	}
}

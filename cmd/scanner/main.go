package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/daszybak/marketscan/internal/polymarket"
	"github.com/daszybak/marketscan/internal/scanner"
)

func main() {
	configPath := flag.String("config", "configs/scanner/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := readConfig(*configPath)
	if err != nil {
		log.Fatalf("Couldn't read config: %v", err)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pm := polymarket.New(cfg.polymarketConfig(), logger)
	defer pm.Close()

	s := scanner.New(pm, cfg.scannerConfig(), os.Stdout, logger)
	if err := s.Run(ctx); err != nil {
		logger.Error("scan failed", "error", err)
		return err
	}
	return nil
}

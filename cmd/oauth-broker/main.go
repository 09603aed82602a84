package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/config"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
)

var BuildVersion = "dev"

func main() {
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *version {
		fmt.Println(BuildVersion)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.LogError("Invalid configuration: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting oauth-broker", map[string]any{
		"version": BuildVersion,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker, err := internal.NewBroker(ctx, cfg)
	if err != nil {
		log.LogError("Failed to build broker: %v", err)
		os.Exit(1)
	}

	if err := broker.Run(ctx); err != nil {
		log.LogError("Broker exited with error: %v", err)
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"log"
	"os"

	"TrendPull/internal/di"
	"TrendPull/pkg/config"
)

func main() {
	configPath := flag.String("config", config.PathFromEnv(), "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s provider=%s kafka=%t redis=%t llm=%t",
		cfg.Environment, cfg.Market.Provider, cfg.Kafka.Enabled, cfg.Redis.Enabled, cfg.LLMConfigured())

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

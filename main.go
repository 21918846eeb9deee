package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"group-inactivity-bot/config"
	"group-inactivity-bot/database"
	"group-inactivity-bot/ledger"
	"group-inactivity-bot/logger"
	"group-inactivity-bot/telegram"
)

func main() {
	// Optional .env file for env-only deployments.
	_ = godotenv.Load()

	log.Println("Starting group inactivity bot...")

	// Load configuration
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting group inactivity bot...")

	// Initialize the moderation audit log (optional)
	var db *database.DB
	if cfg.Database.Path != "" {
		db, err = database.New(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
	}

	// Load the activity ledger
	activityLedger := ledger.New(cfg.Ledger.Path, appLogger)
	if err := activityLedger.Load(); err != nil {
		log.Fatalf("Failed to load activity ledger: %v", err)
	}
	appLogger.Infof("Loaded %d ledger entries across %d chats",
		len(activityLedger.All()), len(activityLedger.Chats()))

	// Initialize Telegram bot
	bot, err := telegram.New(cfg, activityLedger, db, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	// Start the periodic sweeper in a separate goroutine
	go startSweeper(cfg, bot, appLogger)

	// Start bot in a separate goroutine
	go func() {
		if err := bot.Start(); err != nil {
			log.Fatalf("Bot error: %v", err)
		}
	}()

	log.Println("Bot started successfully!")

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down gracefully...")
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

func startSweeper(cfg *config.Config, bot *telegram.Bot, appLogger *logger.Logger) {
	interval := time.Duration(cfg.Inactivity.SweepHours) * time.Hour
	appLogger.Infof("Periodic sweep every %s (safe mode: %v)", interval, cfg.DryRun())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		appLogger.Info("Running periodic inactivity sweep...")
		bot.SweepAll()
		appLogger.Info("Periodic sweep completed")
	}
}

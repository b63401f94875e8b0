package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"sumo-arena/internal/api"
	"sumo-arena/internal/config"
	"sumo-arena/internal/game"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🏟 ================================")
	log.Println("🏟  SUMO ARENA SERVER")
	log.Println("🏟 ================================")

	cfg := config.Load()

	if cfg.Bot.Enabled() {
		log.Printf("🤖 Chat-bot integration enabled (webapp: %s)", cfg.Bot.WebAppURL)
	} else {
		log.Println("⚠️ BOT_TOKEN not set - chat-bot integration disabled")
	}

	eventLog := game.NewEventLog()
	if err := eventLog.Start(cfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if cfg.EventLogPath != "" {
		log.Printf("📝 Event log: %s", cfg.EventLogPath)
	}

	registry := game.NewRegistry(eventLog)

	supervisor := game.NewSupervisor(registry)
	supervisor.Start()

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(registry, cfg)

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	supervisor.Stop()
	server.Stop()
	eventLog.Stop()
	log.Println("👋 Goodbye!")
}

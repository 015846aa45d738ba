package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/picstream/backend/internal/config"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/seed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev", "test", "clean":
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed database with a small data set")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := seed.NewSeeder(database.DB)

	switch command {
	case "dev":
		err = seeder.SeedDev()
	case "test":
		err = seeder.SeedTest()
	case "clean":
		err = seeder.Clean()
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seed command %q completed", command)
}

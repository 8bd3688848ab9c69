// seed/main.go
package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/reelworth/reelworth_api/seed/seeders"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Parse command line flags
	var (
		seedType = flag.String("type", "all", "Type of seeding: all, films, prices")
		dbPath   = flag.String("db", "", "Database path (overrides DB_DATABASE env var)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	// Get database path
	databasePath := *dbPath
	if databasePath == "" {
		databasePath = os.Getenv("DB_DATABASE")
		if databasePath == "" {
			databasePath = "reelworth.db"
		}
	}

	// Connect to database
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Connected to database: %s", databasePath)

	// Create main seeder
	mainSeeder := seeders.NewMainSeeder(db)

	// Run seeding based on type
	switch *seedType {
	case "all":
		log.Println("Running complete database seeding...")
		if err := mainSeeder.SeedAll(); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "films":
		log.Println("Seeding films only...")
		if err := mainSeeder.SeedFilmsOnly(); err != nil {
			log.Fatalf("Failed to seed films: %v", err)
		}
	case "prices":
		log.Println("Seeding price history only...")
		if err := mainSeeder.SeedPricesOnly(); err != nil {
			log.Fatalf("Failed to seed prices: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'films', or 'prices'", *seedType)
	}

	log.Println("Seeding operation completed successfully!")
}

func showHelp() {
	log.Println(`
Database Seeding Tool for the Film Price Guide API

Usage: go run seed/main.go [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, films, prices
  -db string
        Database path (overrides DB_DATABASE environment variable)
  -help
        Show this help message

Examples:
  # Seed everything
  go run seed/main.go

  # Seed only the film catalog
  go run seed/main.go -type=films

  # Seed with custom database path
  go run seed/main.go -db=./custom.db

Environment Variables:
  DB_DATABASE - Default database path (default: reelworth.db)`)
}

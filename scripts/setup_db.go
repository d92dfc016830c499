package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"cps-console/internal/config"
	"cps-console/internal/repository/postgres"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("=== Setting Up Database ===")
	fmt.Println()

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("✅ Connected to %s on %s\n", cfg.Database.Database, cfg.Database.Host)
	fmt.Println()

	ctx := context.Background()

	fmt.Println("Executing schema...")
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("❌ Failed to execute schema: %v", err)
	}

	fmt.Println("✅ Schema executed successfully")
	fmt.Println()

	fmt.Println("=== Verifying Tables ===")
	for _, table := range postgres.Tables {
		exists, err := db.TableExists(ctx, table)
		if err != nil {
			fmt.Printf("❌ Error checking table '%s': %v\n", table, err)
			continue
		}

		if exists {
			fmt.Printf("✅ Table '%s' created\n", table)
		} else {
			fmt.Printf("❌ Table '%s' NOT created\n", table)
		}
	}

	fmt.Println()
	fmt.Println("=== Database Setup Complete ===")
	fmt.Println()
	fmt.Println("Next: Run 'go run main.go' with BACKEND_DRIVER=postgres to start the server")
}

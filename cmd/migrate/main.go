package main

import (
	"log"
	"os"

	"subtrackr-be/internal/model"
	"subtrackr-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: extensions GORM AutoMigrate does not handle
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Membership{},
		&model.Provider{},
		&model.Subscription{},
		&model.Transaction{},
		&model.CancellationRequest{},
		&model.CancellationAttempt{},
		&model.NotificationType{},
		&model.Notification{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: partial index backing the single-writer gate
	log.Println("Step 3: Creating Indexes...")

	postMigrationSQL := []string{
		// At most one non-terminal cancellation request per subscription.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_cancellation_per_subscription
		 ON cancellation_requests (subscription_id)
		 WHERE status IN ('pending', 'processing', 'failed', 'requires_manual');`,

		// The retry poller scans by due time.
		`CREATE INDEX IF NOT EXISTS idx_cancellation_requests_retry_due
		 ON cancellation_requests (next_retry_at)
		 WHERE status = 'failed' AND next_retry_at IS NOT NULL;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed via GORM.")
}

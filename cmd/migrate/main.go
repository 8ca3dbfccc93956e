package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"messenger/config"
	"messenger/pkg/database"

	"gorm.io/gorm"
)

const usage = `
Messenger - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Apply all *.up.sql migrations
  down        Roll back all migrations
  status      Show connection status and row counts
  seed-dev    Seed with development users, lists and chats
  reset       Roll back and re-apply migrations (DANGEROUS)
  truncate    Truncate all tables (DANGEROUS)

Flags:
  -migrations string   Path to migrations directory (default "migrations")
  -seed-pass string    Password given to seeded users (default "password")

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate seed-dev
  go run ./cmd/migrate reset
`

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")
	seedPass := flag.String("seed-pass", "password", "Password given to seeded users")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer database.Close(db)

	switch command {
	case "up":
		runMigrationsUp(db, *migrationsDir)
	case "down":
		runMigrationsDown(db, *migrationsDir)
	case "status":
		showStatus(db)
	case "seed-dev":
		runSeedDevelopment(db, cfg, *seedPass)
	case "reset":
		runReset(db, *migrationsDir)
	case "truncate":
		runTruncate(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB, migrationsDir string) {
	log.Println("🚀 Running migrations UP...")

	if err := database.ApplyRawMigrations(db, migrationsDir); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func runMigrationsDown(db *gorm.DB, migrationsDir string) {
	log.Println("⬇️  Rolling back migrations...")

	if err := database.RollbackMigrations(db, migrationsDir); err != nil {
		log.Fatalf("❌ Rollback failed: %v", err)
	}

	log.Println("✅ Rollback completed successfully!")
}

func showStatus(db *gorm.DB) {
	log.Println("🔍 Checking database status...")

	ctx, cancel := statusContext()
	defer cancel()
	if err := database.Ping(ctx, db); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	for _, table := range database.Tables {
		if !database.TableExists(db, table) {
			log.Printf("❌ Table %-20s does not exist", table)
			continue
		}
		count, err := database.TableCount(db, table)
		if err != nil {
			log.Printf("⚠️  Error counting table %s: %v", table, err)
			continue
		}
		log.Printf("✅ Table %-20s exists (%d rows)", table, count)
	}
}

func runSeedDevelopment(db *gorm.DB, cfg *config.Config, password string) {
	log.Println("🌱 Seeding database (development mode)...")

	result, err := seedDevelopment(db, cfg, password)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	if result.Skipped {
		log.Println("ℹ️  Development data already present, nothing to do")
		return
	}

	log.Println("📊 Seed Summary:")
	log.Printf("   - Users: %d", len(result.Users))
	log.Printf("   - List entries: %d", result.ListEntries)
	log.Printf("   - Chats: %d", len(result.Chats))
	log.Printf("   - Messages: %d", result.Messages)
	log.Println("✅ Development seeding completed!")
}

func runReset(db *gorm.DB, migrationsDir string) {
	log.Println("⚠️  WARNING: This will DROP all tables and re-run migrations!")

	log.Println("🗑️  Dropping all tables...")
	if err := database.RollbackMigrations(db, migrationsDir); err != nil {
		log.Fatalf("❌ Failed to drop tables: %v", err)
	}

	log.Println("🚀 Running migrations...")
	if err := database.ApplyRawMigrations(db, migrationsDir); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Database reset completed!")
}

func runTruncate(db *gorm.DB) {
	log.Println("⚠️  WARNING: This will TRUNCATE all tables!")

	if err := database.TruncateAllTables(db); err != nil {
		log.Fatalf("❌ Truncate failed: %v", err)
	}

	log.Println("✅ All tables truncated!")
}

func statusContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

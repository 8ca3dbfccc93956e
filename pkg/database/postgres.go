package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"messenger/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tables lists the schema's tables in dependency order, children first.
var Tables = []string{"message", "chat_list", "chat", "user_list_contains", "usr", "user_list"}

// Connect opens the pgx-backed gorm handle for cfg and configures its pool.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.AppMode != "production" {
		level = logger.Info
	}
	return Open(cfg.DSN(), level)
}

func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// SQLDB returns the *sql.DB the repositories issue statements through.
func SQLDB(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}
	return sqlDB, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := SQLDB(db)
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := SQLDB(db)
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func migrationFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

func execFile(db *gorm.DB, dir, name string) error {
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", name, err)
	}
	log.Printf("Applying migration: %s", name)
	if err := db.Exec(string(content)).Error; err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", name, err)
	}
	return nil
}

// ApplyRawMigrations executes every *.up.sql file in dir in lexical order.
func ApplyRawMigrations(db *gorm.DB, migrationsDir string) error {
	files, err := migrationFiles(migrationsDir, ".up.sql")
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := execFile(db, migrationsDir, f); err != nil {
			return err
		}
	}
	return nil
}

// RollbackMigrations executes every *.down.sql file in dir in reverse lexical order.
func RollbackMigrations(db *gorm.DB, migrationsDir string) error {
	files, err := migrationFiles(migrationsDir, ".down.sql")
	if err != nil {
		return err
	}
	slices.Reverse(files)
	for _, f := range files {
		if err := execFile(db, migrationsDir, f); err != nil {
			return err
		}
	}
	return nil
}

func TableExists(db *gorm.DB, table string) bool {
	return db.Migrator().HasTable(table)
}

func TableCount(db *gorm.DB, table string) (int64, error) {
	var count int64
	if err := db.Table(table).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TruncateAllTables empties every table and restarts the serial sequences.
func TruncateAllTables(db *gorm.DB) error {
	stmt := "TRUNCATE TABLE " + strings.Join(Tables, ", ") + " RESTART IDENTITY CASCADE"
	return db.Exec(stmt).Error
}

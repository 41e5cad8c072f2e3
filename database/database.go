// Package database persists scan results, citations and credit ledger
// entries in MySQL.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"

	_ "github.com/go-sql-driver/mysql"

	"visibility-scan-service/config"
)

// Database wraps the MySQL connection used by the scan service.
type Database struct {
	db *sql.DB
}

// NewDatabase opens a MySQL connection from config and waits for the
// server to accept pings, backing off exponentially.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	waitInterval := 1 * time.Second
	for attempt := 0; ; attempt++ {
		if err := db.Ping(); err == nil {
			break
		} else if attempt >= 7 {
			return nil, fmt.Errorf("database not reachable: %w", err)
		} else {
			log.Warnf("database connection failed, retrying in %v: %v", waitInterval, err)
			time.Sleep(waitInterval)
			waitInterval *= 2
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// New wraps an existing connection. Used by tests.
func New(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying sql.DB for direct queries
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateTables creates the scan tables if they don't exist.
func (d *Database) CreateTables() error {
	scans := `
	CREATE TABLE IF NOT EXISTS scans (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		query VARCHAR(1024) NOT NULL,
		brand_name VARCHAR(255) NOT NULL,
		overall_score INT NOT NULL,
		responded_count INT NOT NULL,
		visible_count INT NOT NULL,
		total_providers INT NOT NULL,
		outcomes JSON,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_scans_brand_name (brand_name),
		INDEX idx_scans_created_at (created_at)
	)`
	if _, err := d.db.Exec(scans); err != nil {
		return fmt.Errorf("failed to create scans table: %w", err)
	}

	citations := `
	CREATE TABLE IF NOT EXISTS citations (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		provider_id VARCHAR(32) NOT NULL,
		query VARCHAR(1024) NOT NULL,
		url VARCHAR(2048) NOT NULL,
		title VARCHAR(512),
		excerpt TEXT,
		position INT NOT NULL DEFAULT 1,
		sentiment ENUM('positive', 'negative', 'neutral') NOT NULL DEFAULT 'neutral',
		competitors JSON,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_citations_provider_id (provider_id),
		INDEX idx_citations_created_at (created_at)
	)`
	if _, err := d.db.Exec(citations); err != nil {
		return fmt.Errorf("failed to create citations table: %w", err)
	}

	credits := `
	CREATE TABLE IF NOT EXISTS credit_ledger (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		account_id VARCHAR(255) NOT NULL,
		delta INT NOT NULL,
		reason VARCHAR(64) NOT NULL,
		idempotency_key VARCHAR(128) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE INDEX idx_credit_ledger_idempotency (idempotency_key),
		INDEX idx_credit_ledger_account_id (account_id)
	)`
	if _, err := d.db.Exec(credits); err != nil {
		return fmt.Errorf("failed to create credit_ledger table: %w", err)
	}

	log.Info("scan tables created/verified successfully")
	return nil
}

// columnExists checks if a column exists in a table
func (d *Database) columnExists(tableName, columnName string) (bool, error) {
	query := `
	SELECT COUNT(*)
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = DATABASE()
	AND TABLE_NAME = ?
	AND COLUMN_NAME = ?`

	var count int
	err := d.db.QueryRow(query, tableName, columnName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if column exists: %w", err)
	}

	return count > 0, nil
}

// MigrateTables applies additive schema changes to existing deployments.
func (d *Database) MigrateTables() error {
	exists, err := d.columnExists("citations", "competitors")
	if err != nil {
		return fmt.Errorf("failed to check if competitors column exists: %w", err)
	}
	if !exists {
		log.Info("adding competitors column to citations table")
		if _, err := d.db.Exec("ALTER TABLE citations ADD COLUMN competitors JSON"); err != nil {
			return fmt.Errorf("failed to add competitors column: %w", err)
		}
	}

	exists, err = d.columnExists("scans", "outcomes")
	if err != nil {
		return fmt.Errorf("failed to check if outcomes column exists: %w", err)
	}
	if !exists {
		log.Info("adding outcomes column to scans table")
		if _, err := d.db.Exec("ALTER TABLE scans ADD COLUMN outcomes JSON"); err != nil {
			return fmt.Errorf("failed to add outcomes column: %w", err)
		}
	}

	return nil
}

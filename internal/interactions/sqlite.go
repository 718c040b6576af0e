package interactions

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/smartnews/newsrec/internal/models"
)

// SQLiteStore implements Store backed by a SQLite database. The engine only
// reads through the Store interface; Add and Import exist for the ingest
// CLI path.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite interaction log at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("interactions: create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("interactions: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("interactions: enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("interactions: initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		rating REAL NOT NULL DEFAULT 0,
		time_spent_seconds REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_user_id ON interactions(user_id);
	`
	_, err := db.Exec(schema)
	return err
}

// ForUser returns all records for userID in insertion order.
func (s *SQLiteStore) ForUser(ctx context.Context, userID string) ([]models.InteractionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, title, rating, time_spent_seconds
		 FROM interactions WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("interactions: query user %s: %w", userID, err)
	}
	defer rows.Close()

	var records []models.InteractionRecord
	for rows.Next() {
		var rec models.InteractionRecord
		if err := rows.Scan(&rec.UserID, &rec.Title, &rec.Rating, &rec.TimeSpentSeconds); err != nil {
			return nil, fmt.Errorf("interactions: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interactions: iterate records: %w", err)
	}
	return records, nil
}

// Users returns the distinct user ids, sorted.
func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM interactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("interactions: query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, fmt.Errorf("interactions: scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interactions: iterate users: %w", err)
	}
	return users, nil
}

// Count returns the total record count.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("interactions: count records: %w", err)
	}
	return total, nil
}

// Add inserts a single record with a generated id.
func (s *SQLiteStore) Add(ctx context.Context, rec models.InteractionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, title, rating, time_spent_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), rec.UserID, rec.Title, rec.Rating, rec.TimeSpentSeconds)
	if err != nil {
		return fmt.Errorf("interactions: insert record: %w", err)
	}
	return nil
}

// Import bulk-inserts records inside a single transaction and returns the
// number inserted. Used by the CLI to ingest a CSV/XLSX log into SQLite.
func (s *SQLiteStore) Import(ctx context.Context, records []models.InteractionRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("interactions: begin import: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO interactions (id, user_id, title, rating, time_spent_seconds)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("interactions: prepare import: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), rec.UserID, rec.Title, rec.Rating, rec.TimeSpentSeconds); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("interactions: import record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("interactions: commit import: %w", err)
	}
	return len(records), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

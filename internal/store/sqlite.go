package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockbar/internal/models"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (and creates) the history database at dbPath.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one-shot process, a single connection is enough
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return j, nil
}

// initSchema creates all required tables and indexes.
func (j *SQLiteJournal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fired_alarms (
		id TEXT PRIMARY KEY,
		line TEXT NOT NULL,
		kind TEXT NOT NULL,
		symbol TEXT NOT NULL,
		threshold TEXT NOT NULL,
		price REAL NOT NULL,
		fired_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fired_alarms_fired_at ON fired_alarms(fired_at);
	CREATE INDEX IF NOT EXISTS idx_fired_alarms_symbol ON fired_alarms(symbol);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// RecordFired saves one fired alarm.
func (j *SQLiteJournal) RecordFired(ctx context.Context, f models.FiredAlarm) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fired_alarms (id, line, kind, symbol, threshold, price, fired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Line, string(f.Kind), f.Symbol, f.Threshold, f.Price, f.FiredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save fired alarm: %w", err)
	}
	return nil
}

// RecentFired retrieves the newest fired alarms.
func (j *SQLiteJournal) RecentFired(ctx context.Context, limit int) ([]models.FiredAlarm, error) {
	return j.Fired(ctx, FiredFilter{Limit: limit})
}

// Fired retrieves fired alarms matching filter, newest first.
func (j *SQLiteJournal) Fired(ctx context.Context, filter FiredFilter) ([]models.FiredAlarm, error) {
	query := `SELECT id, line, kind, symbol, threshold, price, fired_at FROM fired_alarms`
	var conditions []string
	var args []interface{}

	if filter.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "fired_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY fired_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fired alarms: %w", err)
	}
	defer rows.Close()

	var fired []models.FiredAlarm
	for rows.Next() {
		var f models.FiredAlarm
		var kind string
		var firedAt time.Time
		if err := rows.Scan(&f.ID, &f.Line, &kind, &f.Symbol, &f.Threshold, &f.Price, &firedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fired alarm: %w", err)
		}
		f.Kind = models.AlarmKind(kind)
		f.FiredAt = firedAt.Local()
		fired = append(fired, f)
	}

	return fired, rows.Err()
}

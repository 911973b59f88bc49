// Package database keeps a SQLite history of removed artifacts.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"broom/internal/scan"
)

// Action is what happened to a match.
type Action string

const (
	ActionDelete Action = "DELETE"
	ActionDryRun Action = "DRY_RUN"
	ActionSkip   Action = "SKIP"
	ActionError  Action = "ERROR"
)

const schemaVersion = 1

// HistoryDB manages the SQLite database of removals.
type HistoryDB struct {
	db  *sql.DB
	now func() time.Time
}

// Removal is one row of history.
type Removal struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Action       Action    `json:"action"`
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	Categories   string    `json:"categories"`
	ObjectType   string    `json:"object_type"`
	Size         *int64    `json:"size,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string) (*HistoryDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto parses DATETIME columns back into time.Time.
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// sql.Open is lazy; this creates the file.
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	h := &HistoryDB{db: db, now: time.Now}
	if err = h.initSchema(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HistoryDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS removals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		name TEXT NOT NULL,
		categories TEXT NOT NULL,
		object_type TEXT NOT NULL,
		size INTEGER,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_removals_timestamp ON removals(timestamp);
	CREATE INDEX IF NOT EXISTS idx_removals_action ON removals(action);
	CREATE INDEX IF NOT EXISTS idx_removals_path ON removals(path);
	CREATE INDEX IF NOT EXISTS idx_removals_categories ON removals(categories);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := h.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := h.db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// Record stores what happened to m. size may be nil when the match was not
// measured; errMsg explains a skip or a failed
// deletion and is empty otherwise.
func (h *HistoryDB) Record(action Action, m scan.Match, size *int64, errMsg string) error {
	var nullErr sql.NullString
	if errMsg != "" {
		nullErr = sql.NullString{String: errMsg, Valid: true}
	}

	_, err := h.db.Exec(`
	INSERT INTO removals (
		timestamp, action, path, name, categories, object_type, size, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		h.now().UTC(),
		string(action),
		m.Path,
		filepath.Base(m.Path),
		m.Flag.String(),
		objectType(m),
		size,
		nullErr,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", m.Path, err)
	}
	return nil
}

func objectType(m scan.Match) string {
	if m.IsDir {
		return "directory"
	}
	return "file"
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

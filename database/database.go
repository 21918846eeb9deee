package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

// Moderation actions recorded in the audit log.
const (
	ActionWarn   = "warn"   // inactivity warning sent
	ActionFlag   = "flag"   // flagged as removal-due in safe mode
	ActionRemove = "remove" // kick attempted (ban + unban)
)

// LogEntry is one audited moderation action against a member.
type LogEntry struct {
	ID          int64     `json:"id"`
	ChatID      int64     `json:"chat_id"`
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Action      string    `json:"action"`
	Success     bool      `json:"success"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}

func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS moderation_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			display_name TEXT,
			action TEXT NOT NULL,
			success INTEGER NOT NULL DEFAULT 1,
			detail TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_moderation_log_chat
			ON moderation_log(chat_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

func (db *DB) LogAction(entry *LogEntry) error {
	query := `INSERT INTO moderation_log (chat_id, user_id, display_name, action, success, detail)
			  VALUES (?, ?, ?, ?, ?, ?)`

	result, err := db.conn.Exec(query, entry.ChatID, entry.UserID, entry.DisplayName,
		entry.Action, entry.Success, entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	entry.ID = id
	return nil
}

func (db *DB) RecentActions(chatID int64, limit int) ([]LogEntry, error) {
	query := `SELECT id, chat_id, user_id, display_name, action, success, detail, created_at
			  FROM moderation_log WHERE chat_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := db.conn.Query(query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var entry LogEntry
		err := rows.Scan(&entry.ID, &entry.ChatID, &entry.UserID, &entry.DisplayName,
			&entry.Action, &entry.Success, &entry.Detail, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (db *DB) CountActionsSince(chatID int64, action string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM moderation_log
			  WHERE chat_id = ? AND action = ? AND success = 1 AND created_at >= ?`
	// created_at is stored by sqlite in UTC
	err := db.conn.QueryRow(query, chatID, action, since.UTC()).Scan(&count)
	return count, err
}

func (db *DB) CleanupOldEntries(daysOld int) error {
	query := `DELETE FROM moderation_log WHERE created_at < datetime('now', '-' || ? || ' days')`
	_, err := db.conn.Exec(query, daysOld)
	if err != nil {
		return fmt.Errorf("failed to cleanup old log entries: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

package history

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one recorded load
type Entry struct {
	ID     int
	Source string
	// Request is the request as JSON
	Request      string
	ExecutedAt   time.Time
	Duration     time.Duration
	Rows         int
	Total        int
	Success      bool
	ErrorMessage string
}

// NewEntry describes a finished load of req from source
func NewEntry(source string, req models.DataRequest, page models.DataPage, elapsed time.Duration, loadErr error) (Entry, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode request: %w", err)
	}

	e := Entry{
		Source:     source,
		Request:    string(data),
		ExecutedAt: time.Now(),
		Duration:   elapsed,
		Success:    loadErr == nil,
	}
	if loadErr != nil {
		e.ErrorMessage = loadErr.Error()
	} else {
		e.Rows = len(page.Items)
		e.Total = page.Total
	}
	return e, nil
}

// DecodeRequest parses the stored request
func (e Entry) DecodeRequest() (models.DataRequest, error) {
	var req models.DataRequest
	if err := json.Unmarshal([]byte(e.Request), &req); err != nil {
		return req, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

// Store persists load history in SQLite
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at path
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Add records an entry
func (s *Store) Add(entry Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO load_history
		(source, request, executed_at, duration_ms, row_count, total, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Source,
		entry.Request,
		entry.ExecutedAt.UTC(),
		entry.Duration.Milliseconds(),
		entry.Rows,
		entry.Total,
		entry.Success,
		entry.ErrorMessage,
	)
	return err
}

// GetRecent returns the newest entries first
func (s *Store) GetRecent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, source, request, executed_at, duration_ms, row_count, total, success, error_message
		FROM load_history
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Search returns entries whose source or request contains text
func (s *Store) Search(text string, limit int) ([]Entry, error) {
	pattern := "%" + text + "%"
	rows, err := s.db.Query(`
		SELECT id, source, request, executed_at, duration_ms, row_count, total, success, error_message
		FROM load_history
		WHERE source LIKE ? OR request LIKE ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64

		err := rows.Scan(
			&e.ID,
			&e.Source,
			&e.Request,
			&e.ExecutedAt,
			&durationMs,
			&e.Rows,
			&e.Total,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

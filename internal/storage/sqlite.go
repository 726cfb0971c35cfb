package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/claude/trackline/internal/models"
)

// SQLiteStore is the default single-file backend: one key/value table of
// JSON snapshots, suitable for a coach's laptop or a small box at the track.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file, creating parent
// directories as needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS app_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating app_state table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) load(ctx context.Context, key string, out any) error {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM app_state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) LoadAthletes(ctx context.Context) ([]models.Athlete, error) {
	var out []models.Athlete
	if err := s.load(ctx, keyAthletes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveAthletes(ctx context.Context, athletes []models.Athlete) error {
	return s.save(ctx, keyAthletes, athletes)
}

func (s *SQLiteStore) LoadTemplates(ctx context.Context) ([]models.TemplateSession, error) {
	var out []models.TemplateSession
	if err := s.load(ctx, keyTemplates, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveTemplates(ctx context.Context, templates []models.TemplateSession) error {
	return s.save(ctx, keyTemplates, templates)
}

func (s *SQLiteStore) LoadSessions(ctx context.Context) ([]*models.LiveSession, error) {
	var out []*models.LiveSession
	if err := s.load(ctx, keySessions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSessions(ctx context.Context, sessions []*models.LiveSession) error {
	return s.save(ctx, keySessions, sessions)
}

func (s *SQLiteStore) LoadActiveSessionID(ctx context.Context) (string, error) {
	var id string
	err := s.load(ctx, keyActiveSessionID, &id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) SaveActiveSessionID(ctx context.Context, id string) error {
	return s.save(ctx, keyActiveSessionID, id)
}

// Compile-time check: *SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/trackline/internal/models"
)

// PostgresStore is the shared-deployment backend: the same four JSON
// snapshots in an app_state table, behind a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) load(ctx context.Context, key string, out any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM app_state WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO app_state (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, raw)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) LoadAthletes(ctx context.Context) ([]models.Athlete, error) {
	var out []models.Athlete
	if err := s.load(ctx, keyAthletes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) SaveAthletes(ctx context.Context, athletes []models.Athlete) error {
	return s.save(ctx, keyAthletes, athletes)
}

func (s *PostgresStore) LoadTemplates(ctx context.Context) ([]models.TemplateSession, error) {
	var out []models.TemplateSession
	if err := s.load(ctx, keyTemplates, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) SaveTemplates(ctx context.Context, templates []models.TemplateSession) error {
	return s.save(ctx, keyTemplates, templates)
}

func (s *PostgresStore) LoadSessions(ctx context.Context) ([]*models.LiveSession, error) {
	var out []*models.LiveSession
	if err := s.load(ctx, keySessions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) SaveSessions(ctx context.Context, sessions []*models.LiveSession) error {
	return s.save(ctx, keySessions, sessions)
}

func (s *PostgresStore) LoadActiveSessionID(ctx context.Context) (string, error) {
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

func (s *PostgresStore) SaveActiveSessionID(ctx context.Context, id string) error {
	return s.save(ctx, keyActiveSessionID, id)
}

// Compile-time check: *PostgresStore satisfies Store.
var _ Store = (*PostgresStore)(nil)

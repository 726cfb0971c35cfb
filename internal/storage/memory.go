package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/claude/trackline/internal/models"
)

// MemoryStore keeps the snapshots in a map. It backs engine and server
// tests; records round-trip through JSON so it has the same aliasing
// behavior as the real backends.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) load(key string, out any) error {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadAthletes(ctx context.Context) ([]models.Athlete, error) {
	var out []models.Athlete
	if err := s.load(keyAthletes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemoryStore) SaveAthletes(ctx context.Context, athletes []models.Athlete) error {
	return s.save(keyAthletes, athletes)
}

func (s *MemoryStore) LoadTemplates(ctx context.Context) ([]models.TemplateSession, error) {
	var out []models.TemplateSession
	if err := s.load(keyTemplates, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemoryStore) SaveTemplates(ctx context.Context, templates []models.TemplateSession) error {
	return s.save(keyTemplates, templates)
}

func (s *MemoryStore) LoadSessions(ctx context.Context) ([]*models.LiveSession, error) {
	var out []*models.LiveSession
	if err := s.load(keySessions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemoryStore) SaveSessions(ctx context.Context, sessions []*models.LiveSession) error {
	return s.save(keySessions, sessions)
}

func (s *MemoryStore) LoadActiveSessionID(ctx context.Context) (string, error) {
	var id string
	if err := s.load(keyActiveSessionID, &id); err != nil {
		if err == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) SaveActiveSessionID(ctx context.Context, id string) error {
	return s.save(keyActiveSessionID, id)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Compile-time check: *MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

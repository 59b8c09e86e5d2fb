package memory

import (
	"context"
	"sync"

	"quizmaster/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreStore, used in
// tests and when no file path or database is configured.
type ScoreStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) List(_ context.Context) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *ScoreStore) Append(_ context.Context, record domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *ScoreStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

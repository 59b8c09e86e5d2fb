package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"quizmaster/internal/domain"
)

// ScoreStore persists the full score collection as one JSON array on disk.
// Every mutation rewrites the file; a mutex serializes the read-modify-write
// cycle so concurrent savers cannot drop each other's records. Writes go
// through a temp file and rename so a crash never leaves a half-written
// store behind.
type ScoreStore struct {
	path string

	mu      sync.Mutex
	records []domain.ScoreRecord
}

// NewScoreStore opens (or initializes) the store at path, creating parent
// directories as needed. A missing file starts the store empty.
func NewScoreStore(path string) (*ScoreStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &ScoreStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}
	return s, nil
}

func (s *ScoreStore) List(_ context.Context) ([]domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *ScoreStore) Append(_ context.Context, record domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if err := s.flushLocked(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return err
	}
	return nil
}

func (s *ScoreStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			removed := r
			s.records = append(s.records[:i], s.records[i+1:]...)
			if err := s.flushLocked(); err != nil {
				s.records = append(s.records[:i], append([]domain.ScoreRecord{removed}, s.records[i:]...)...)
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *ScoreStore) flushLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace scores: %w", err)
	}
	return nil
}

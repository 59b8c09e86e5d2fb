package app

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"quizmaster/internal/domain"
)

// ScoreStore abstracts score persistence (JSON file, memory, Postgres).
type ScoreStore interface {
	List(ctx context.Context) ([]domain.ScoreRecord, error)
	Append(ctx context.Context, record domain.ScoreRecord) error
	Delete(ctx context.Context, id string) (bool, error)
}

// SaveScoreRequest carries a score submission. Percentage and Date are
// optional; zero values are derived server-side.
type SaveScoreRequest struct {
	Username       string
	Score          int
	TotalQuestions int
	Percentage     int
	Date           time.Time
}

// ScoreService validates submissions, persists records, and serves the
// aggregated views (list, leaderboard, stats).
type ScoreService struct {
	store ScoreStore
	now   func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewScoreService(store ScoreStore) *ScoreService {
	return NewScoreServiceWithClock(store, time.Now)
}

// NewScoreServiceWithClock allows deterministic timestamps in tests.
func NewScoreServiceWithClock(store ScoreStore, now func() time.Time) *ScoreService {
	return &ScoreService{
		store: store,
		now:   now,
		rnd:   rand.New(rand.NewSource(now().UnixNano())),
	}
}

// Save validates the submission, fills derived fields, and appends the
// record. Validation failures wrap domain.ErrValidation with a field
// message; store failures surface untouched so the caller may retry.
func (s *ScoreService) Save(ctx context.Context, req SaveScoreRequest) (domain.ScoreRecord, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return domain.ScoreRecord{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if req.Score < 0 {
		return domain.ScoreRecord{}, fmt.Errorf("%w: score must be non-negative", domain.ErrValidation)
	}
	if req.TotalQuestions <= 0 {
		return domain.ScoreRecord{}, fmt.Errorf("%w: totalQuestions must be positive", domain.ErrValidation)
	}

	percentage := req.Percentage
	if percentage == 0 {
		percentage = Percentage(req.Score, req.TotalQuestions)
	}

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}

	record := domain.ScoreRecord{
		ID:             s.newRecordID(),
		Username:       username,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Percentage:     percentage,
		Date:           date,
	}

	if err := s.store.Append(ctx, record); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("append score: %w", err)
	}
	return record, nil
}

// List returns scores sorted for display plus the stored total.
func (s *ScoreService) List(ctx context.Context, limit int) ([]domain.ScoreRecord, int, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	return ListScores(records, limit), len(records), nil
}

// Leaderboard returns the ranked best-per-user view plus the number of
// distinct participants.
func (s *ScoreService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, int, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	return Leaderboard(records, limit), len(BestPerUser(records)), nil
}

// Stats aggregates the stored collection.
func (s *ScoreService) Stats(ctx context.Context) (domain.Stats, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return ComputeStats(records), nil
}

// Delete removes one record by ID, reporting whether it existed.
func (s *ScoreService) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// Record IDs keep the original wire format: unix milliseconds followed by
// nine random base36 characters.
func (s *ScoreService) newRecordID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString(strconv.FormatInt(s.now().UnixMilli(), 10))
	for i := 0; i < 9; i++ {
		b.WriteByte(alphabet[s.rnd.Intn(len(alphabet))])
	}
	return b.String()
}

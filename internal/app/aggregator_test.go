package app_test

import (
	"testing"
	"time"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
)

func record(username string, score, total, percentage int, date time.Time) domain.ScoreRecord {
	return domain.ScoreRecord{
		ID:             username + date.Format("150405"),
		Username:       username,
		Score:          score,
		TotalQuestions: total,
		Percentage:     percentage,
		Date:           date,
	}
}

func TestBestPerUserTieBreak(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.ScoreRecord{
		record("alice", 8, 10, 80, base),
		record("alice", 9, 10, 80, base.Add(time.Hour)),
	}

	best := app.BestPerUser(records)
	if best["alice"].Score != 9 {
		t.Fatalf("expected higher raw score to win the percentage tie, got %d", best["alice"].Score)
	}
}

func TestBestPerUserFirstSeenWinsFullTie(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := record("bob", 8, 10, 80, base)
	second := record("bob", 8, 10, 80, base.Add(time.Hour))

	best := app.BestPerUser([]domain.ScoreRecord{first, second})
	if best["bob"].ID != first.ID {
		t.Fatalf("expected first-seen record on a full tie, got %s", best["bob"].ID)
	}
}

func TestLeaderboardDenseRanks(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.ScoreRecord{
		record("alice", 9, 10, 90, base),
		record("bob", 9, 10, 90, base),
		record("carol", 7, 10, 70, base),
	}

	entries := app.Leaderboard(records, 0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Fatalf("expected dense consecutive ranks, got rank %d at position %d", e.Rank, i)
		}
	}
	// Tied users keep encounter order.
	if entries[0].Username != "alice" || entries[1].Username != "bob" {
		t.Fatalf("expected ties in encounter order, got %s then %s", entries[0].Username, entries[1].Username)
	}
}

func TestLeaderboardTruncates(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var records []domain.ScoreRecord
	for _, name := range []string{"a", "b", "c", "d"} {
		records = append(records, record(name, 5, 10, 50, base))
	}

	entries := app.Leaderboard(records, 2)
	if len(entries) != 2 {
		t.Fatalf("expected limit applied, got %d entries", len(entries))
	}
}

func TestListScoresOrdersByScoreThenRecency(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	older := record("alice", 9, 10, 90, base)
	newer := record("bob", 9, 10, 90, base.Add(time.Hour))
	low := record("carol", 3, 10, 30, base)

	out := app.ListScores([]domain.ScoreRecord{older, low, newer}, 0)
	if len(out) != 3 {
		t.Fatalf("expected all records, got %d", len(out))
	}
	if out[0].Username != "bob" || out[1].Username != "alice" || out[2].Username != "carol" {
		t.Fatalf("unexpected order: %s, %s, %s", out[0].Username, out[1].Username, out[2].Username)
	}

	limited := app.ListScores([]domain.ScoreRecord{older, low, newer}, 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit 1, got %d", len(limited))
	}
}

func TestStatsEmpty(t *testing.T) {
	stats := app.ComputeStats(nil)
	if stats != (domain.Stats{}) {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
}

func TestStatsAggregates(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.ScoreRecord{
		record("alice", 10, 10, 100, base),
		record("bob", 0, 10, 0, base),
	}

	stats := app.ComputeStats(records)
	if stats.TotalQuizzes != 2 || stats.UniqueUsers != 2 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.AverageScore != 50.0 {
		t.Fatalf("expected average 50.0, got %v", stats.AverageScore)
	}
	if stats.HighestScore != 100 || stats.LowestScore != 0 {
		t.Fatalf("unexpected extremes: %+v", stats)
	}
}

func TestStatsRoundsToOneDecimal(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.ScoreRecord{
		record("a", 1, 3, 33, base),
		record("b", 1, 3, 33, base),
		record("c", 2, 3, 67, base),
	}

	stats := app.ComputeStats(records)
	if stats.AverageScore != 44.3 {
		t.Fatalf("expected 44.3, got %v", stats.AverageScore)
	}
}

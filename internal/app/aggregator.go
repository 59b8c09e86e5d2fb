package app

import (
	"math"
	"sort"

	"quizmaster/internal/domain"
)

// DefaultLeaderboardLimit caps the leaderboard when the caller does not ask
// for a specific size.
const DefaultLeaderboardLimit = 10

// BestPerUser maps each username to the record maximizing (percentage,
// score) lexicographically. The scan is order-preserving: the first-seen
// record wins remaining ties.
func BestPerUser(records []domain.ScoreRecord) map[string]domain.ScoreRecord {
	best := make(map[string]domain.ScoreRecord)
	for _, r := range records {
		current, ok := best[r.Username]
		if !ok || r.Percentage > current.Percentage ||
			(r.Percentage == current.Percentage && r.Score > current.Score) {
			best[r.Username] = r
		}
	}
	return best
}

// Leaderboard ranks each user's best record descending by (percentage,
// score) and truncates to limit (DefaultLeaderboardLimit when non-positive).
// Ranks are dense and consecutive from 1; ties keep encounter order.
func Leaderboard(records []domain.ScoreRecord, limit int) []domain.LeaderboardEntry {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	best := BestPerUser(records)

	// Rebuild in first-seen order so equal (percentage, score) pairs rank
	// by encounter order after the stable sort.
	ranked := make([]domain.ScoreRecord, 0, len(best))
	seen := make(map[string]bool, len(best))
	for _, r := range records {
		if seen[r.Username] {
			continue
		}
		seen[r.Username] = true
		ranked = append(ranked, best[r.Username])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Percentage != ranked[j].Percentage {
			return ranked[i].Percentage > ranked[j].Percentage
		}
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]domain.LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = domain.LeaderboardEntry{ScoreRecord: r, Rank: i + 1}
	}
	return entries
}

// ListScores returns every record (no per-user dedup) descending by (score,
// date) with the most recent winning ties. A non-positive limit returns all.
func ListScores(records []domain.ScoreRecord, limit int) []domain.ScoreRecord {
	out := make([]domain.ScoreRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Date.After(out[j].Date)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ComputeStats aggregates the whole collection; an empty input yields
// all-zero stats with no division.
func ComputeStats(records []domain.ScoreRecord) domain.Stats {
	if len(records) == 0 {
		return domain.Stats{}
	}

	users := make(map[string]struct{}, len(records))
	sum := 0
	highest := records[0].Percentage
	lowest := records[0].Percentage
	for _, r := range records {
		users[r.Username] = struct{}{}
		sum += r.Percentage
		if r.Percentage > highest {
			highest = r.Percentage
		}
		if r.Percentage < lowest {
			lowest = r.Percentage
		}
	}

	average := float64(sum) / float64(len(records))

	return domain.Stats{
		TotalQuizzes: len(records),
		UniqueUsers:  len(users),
		AverageScore: math.Round(average*10) / 10,
		HighestScore: highest,
		LowestScore:  lowest,
	}
}

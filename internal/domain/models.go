package domain

import "time"

// Difficulty mirrors the upstream question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a normalized, plain-text quiz question. Answers hold every
// choice in shuffled order; CorrectAnswer appears among them.
type Question struct {
	Text          string     `json:"question"`
	Category      string     `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	CorrectAnswer string     `json:"correctAnswer"`
	Answers       []string   `json:"answers"`
}

// PublicQuestion is the client-safe view of a question, without the
// correct answer.
type PublicQuestion struct {
	Text       string     `json:"question"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Answers    []string   `json:"answers"`
}

// Public strips the correct answer for transport to players.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		Text:       q.Text,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Answers:    q.Answers,
	}
}

// ScoreRecord is one persisted quiz result.
type ScoreRecord struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	Date           time.Time `json:"date"`
}

// LeaderboardEntry is a user's best record annotated with its dense rank.
type LeaderboardEntry struct {
	ScoreRecord
	Rank int `json:"rank"`
}

// Stats aggregates the whole score collection. AverageScore is the mean
// percentage rounded to one decimal place.
type Stats struct {
	TotalQuizzes int     `json:"totalQuizzes"`
	UniqueUsers  int     `json:"uniqueUsers"`
	AverageScore float64 `json:"averageScore"`
	HighestScore int     `json:"highestScore"`
	LowestScore  int     `json:"lowestScore"`
}

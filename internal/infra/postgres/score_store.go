package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizmaster/internal/domain"
)

// ScoreStore persists score records in Postgres, selected when a database
// URL is configured.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) List(ctx context.Context) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, score, total_questions, percentage, date FROM scores ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var r domain.ScoreRecord
		if err := rows.Scan(&r.ID, &r.Username, &r.Score, &r.TotalQuestions, &r.Percentage, &r.Date); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *ScoreStore) Append(ctx context.Context, record domain.ScoreRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scores (id, username, score, total_questions, percentage, date) VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.Username, record.Score, record.TotalQuestions, record.Percentage, record.Date)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scores WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete score: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

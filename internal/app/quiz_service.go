package app

import (
	"context"
	"math/rand"
	"time"

	"quizmaster/internal/opentdb"
)

// QuestionSource fetches raw question sets; implemented by the opentdb
// client and the caching layers wrapping it.
type QuestionSource interface {
	Fetch(ctx context.Context, req opentdb.Request) (*opentdb.Response, error)
}

// QuizService ties the question source to session creation: it fetches raw
// questions, normalizes them, and loads them into a session.
type QuizService struct {
	source  QuestionSource
	newRand func() *rand.Rand
}

func NewQuizService(source QuestionSource) *QuizService {
	return &QuizService{
		source: source,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// NewQuizServiceWithRand pins the shuffle source for deterministic tests.
func NewQuizServiceWithRand(source QuestionSource, newRand func() *rand.Rand) *QuizService {
	return &QuizService{source: source, newRand: newRand}
}

// RawQuestions proxies the upstream payload untouched; the REST questions
// endpoint forwards it for clients that normalize themselves.
func (s *QuizService) RawQuestions(ctx context.Context, req opentdb.Request) (*opentdb.Response, error) {
	return s.source.Fetch(ctx, req)
}

// LoadSession fetches and normalizes a question set into the session. On
// fetch failure the session transitions to its error state and the error is
// returned; Reset brings it back to idle for a retry.
func (s *QuizService) LoadSession(ctx context.Context, req opentdb.Request, session *Session) error {
	payload, err := s.source.Fetch(ctx, req)
	if err != nil {
		session.Fail(err)
		return err
	}

	normalizer := NewNormalizer(s.newRand())
	if err := session.Load(normalizer.Normalize(payload.Results)); err != nil {
		session.Fail(err)
		return err
	}
	return nil
}

package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/opentdb"
)

type stubSource struct {
	payload *opentdb.Response
	err     error
	calls   int
	lastReq opentdb.Request
}

func (s *stubSource) Fetch(_ context.Context, req opentdb.Request) (*opentdb.Response, error) {
	s.calls++
	s.lastReq = req
	return s.payload, s.err
}

func fixedRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestLoadSessionNormalizesAndLoads(t *testing.T) {
	source := &stubSource{payload: &opentdb.Response{
		Results: []opentdb.RawQuestion{
			{
				Question:         "2 &plus; 2?",
				Category:         "Math",
				Difficulty:       "easy",
				CorrectAnswer:    "4",
				IncorrectAnswers: []string{"3", "5"},
			},
		},
	}}
	service := app.NewQuizServiceWithRand(source, fixedRand)
	session := app.NewSessionWithInterval(0)

	if err := service.LoadSession(context.Background(), opentdb.Request{Amount: 1}, session); err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.State() != app.StateLoaded {
		t.Fatalf("expected loaded state, got %s", session.State())
	}

	questions := session.Questions()
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].Text != "2 + 2?" {
		t.Fatalf("expected decoded text, got %q", questions[0].Text)
	}
	if questions[0].CorrectAnswer != "4" || len(questions[0].Answers) != 3 {
		t.Fatalf("unexpected normalization: %+v", questions[0])
	}
}

func TestLoadSessionFetchFailureEntersErrorState(t *testing.T) {
	source := &stubSource{err: domain.ErrSourceUnavailable}
	service := app.NewQuizServiceWithRand(source, fixedRand)
	session := app.NewSessionWithInterval(0)

	err := service.LoadSession(context.Background(), opentdb.Request{}, session)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected source error, got %v", err)
	}
	if session.State() != app.StateError {
		t.Fatalf("expected error state, got %s", session.State())
	}
	if session.Err() == nil {
		t.Fatalf("expected recorded load error")
	}

	// Reset offers the retry path back to idle.
	session.Reset()
	if session.State() != app.StateIdle {
		t.Fatalf("expected idle after reset, got %s", session.State())
	}
}

func TestLoadSessionEmptyResultsEntersErrorState(t *testing.T) {
	source := &stubSource{payload: &opentdb.Response{}}
	service := app.NewQuizServiceWithRand(source, fixedRand)
	session := app.NewSessionWithInterval(0)

	err := service.LoadSession(context.Background(), opentdb.Request{}, session)
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions error, got %v", err)
	}
	if session.State() != app.StateError {
		t.Fatalf("expected error state, got %s", session.State())
	}
}

func TestRawQuestionsPassthrough(t *testing.T) {
	payload := &opentdb.Response{ResponseCode: 0}
	source := &stubSource{payload: payload}
	service := app.NewQuizServiceWithRand(source, fixedRand)

	got, err := service.RawQuestions(context.Background(), opentdb.Request{Amount: 5, Difficulty: "hard"})
	if err != nil {
		t.Fatalf("raw questions: %v", err)
	}
	if got != payload {
		t.Fatalf("expected upstream payload forwarded untouched")
	}
	if source.lastReq.Amount != 5 || source.lastReq.Difficulty != "hard" {
		t.Fatalf("request not forwarded: %+v", source.lastReq)
	}
}

package memory

import (
	"context"
	"testing"
	"time"

	"quizmaster/internal/opentdb"
)

type countingSource struct {
	calls   int
	payload *opentdb.Response
}

func (s *countingSource) Fetch(_ context.Context, _ opentdb.Request) (*opentdb.Response, error) {
	s.calls++
	return s.payload, nil
}

func samplePayload() *opentdb.Response {
	return &opentdb.Response{
		Results: []opentdb.RawQuestion{
			{Question: "q", CorrectAnswer: "a", IncorrectAnswers: []string{"b"}},
		},
	}
}

func TestQuestionCacheCaches(t *testing.T) {
	source := &countingSource{payload: samplePayload()}
	cache := NewQuestionCache(source, time.Minute)
	req := opentdb.Request{Amount: 15}

	if _, err := cache.Fetch(context.Background(), req); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", source.calls)
	}

	if _, err := cache.Fetch(context.Background(), req); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, upstream calls %d", source.calls)
	}
}

func TestQuestionCacheKeysByRequest(t *testing.T) {
	source := &countingSource{payload: samplePayload()}
	cache := NewQuestionCache(source, time.Minute)

	if _, err := cache.Fetch(context.Background(), opentdb.Request{Amount: 10}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := cache.Fetch(context.Background(), opentdb.Request{Amount: 10, Difficulty: "hard"}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected distinct requests to miss separately, got %d calls", source.calls)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	source := &countingSource{payload: samplePayload()}
	cache := NewQuestionCache(source, time.Minute)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	req := opentdb.Request{Amount: 15}
	if _, err := cache.Fetch(context.Background(), req); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	now = now.Add(2 * time.Minute) // beyond ttl plus jitter
	if _, err := cache.Fetch(context.Background(), req); err != nil {
		t.Fatalf("fetch after expiry: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", source.calls)
	}
}

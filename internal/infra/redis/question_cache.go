package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizmaster/internal/opentdb"
)

// QuestionCache caches upstream question payloads in Redis, one JSON value
// per request key, and falls back to the wrapped source on a miss.
// Concurrent misses for the same key collapse into one upstream call.
type QuestionCache struct {
	client *redis.Client
	source fetcher
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

type fetcher interface {
	Fetch(ctx context.Context, req opentdb.Request) (*opentdb.Response, error)
}

func NewQuestionCache(client *redis.Client, source fetcher, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Fetch(ctx context.Context, req opentdb.Request) (*opentdb.Response, error) {
	key := c.key(req)

	if payload, ok := c.lookup(ctx, key); ok {
		return payload, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if payload, ok := c.lookup(ctx, key); ok {
			return payload, nil
		}

		payload, err := c.source.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(payload)
		if err == nil {
			// Cache fill is best-effort; a Redis hiccup must not fail the fetch.
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*opentdb.Response), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) (*opentdb.Response, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var payload opentdb.Response
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	return &payload, true
}

func (c *QuestionCache) key(req opentdb.Request) string {
	return "questions:" + req.Key()
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

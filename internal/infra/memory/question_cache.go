package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizmaster/internal/opentdb"
)

// QuestionCache caches upstream question sets with a TTL to spare the
// public API from repeated identical fetches. Concurrent misses for the
// same request collapse into one upstream call.
type QuestionCache struct {
	source fetcher
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	payload   *opentdb.Response
	expiresAt time.Time
}

type fetcher interface {
	Fetch(ctx context.Context, req opentdb.Request) (*opentdb.Response, error)
}

func NewQuestionCache(source fetcher, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (c *QuestionCache) Fetch(ctx context.Context, req opentdb.Request) (*opentdb.Response, error) {
	key := req.Key()
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.payload, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.payload, nil
		}
		c.mu.RUnlock()

		payload, err := c.source.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedSet{
			payload:   payload,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*opentdb.Response), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

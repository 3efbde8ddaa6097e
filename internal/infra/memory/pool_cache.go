package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

const poolKey = "pool"

// PoolCache caches the full question pool with TTL to avoid repeated DB hits on session start.
// FindByIDs always reaches the backing repository so scoring sees authoritative data.
type PoolCache struct {
	backing app.QuestionRepository
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rndMu   sync.Mutex
	rnd     *rand.Rand

	mu    sync.RWMutex
	entry *cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewPoolCache(backing app.QuestionRepository, ttl time.Duration) *PoolCache {
	return &PoolCache{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PoolCache) FindAll(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := c.cached(c.clock()); ok {
		return pool, nil
	}

	result, err, _ := c.sf.Do(poolKey, func() (interface{}, error) {
		now := c.clock()
		if pool, ok := c.cached(now); ok {
			return pool, nil
		}

		pool, err := c.backing.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		c.mu.Lock()
		c.entry = &cachedPool{questions: pool, expiresAt: now.Add(ttl)}
		c.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *PoolCache) FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	return c.backing.FindByIDs(ctx, ids)
}

// Invalidate drops the cached pool.
func (c *PoolCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
	return nil
}

func (c *PoolCache) cached(now time.Time) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry != nil && c.entry.expiresAt.After(now) {
		return c.entry.questions, true
	}
	return nil, false
}

func (c *PoolCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

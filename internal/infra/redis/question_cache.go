package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// QuestionCache caches the question pool in Redis and falls back to the backing repository on miss.
// The whole pool lives in one hash so every instance sees the same content:
//
//	HSET quiz:questions {questionID} {question JSON}
//
// The hash is only ever written as a complete pool, so a present hash is the full pool.
type QuestionCache struct {
	client  *redis.Client
	backing app.QuestionRepository
	ttl     time.Duration
	key     string
	sf      singleflight.Group
	rndMu   sync.Mutex
	rnd     *rand.Rand
}

func NewQuestionCache(client *redis.Client, backing app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		key:     "quiz:questions",
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) FindAll(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := c.cachedPool(ctx); ok {
		return pool, nil
	}

	result, err, _ := c.sf.Do(c.key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := c.cachedPool(ctx); ok {
			return pool, nil
		}

		pool, err := c.backing.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return pool, nil
		}

		values := make(map[string]interface{}, len(pool))
		for _, q := range pool {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			values[q.ID] = raw
		}

		pipe := c.client.TxPipeline()
		pipe.Del(ctx, c.key)
		pipe.HSet(ctx, c.key, values)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, c.key, ttl)
		}
		// best-effort; a failed fill only costs another load
		_, _ = pipe.Exec(ctx)

		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// FindByIDs serves cached questions and asks the backing repository for the rest.
func (c *QuestionCache) FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	values, err := c.client.HMGet(ctx, c.key, ids...).Result()
	if err != nil {
		return c.backing.FindByIDs(ctx, ids)
	}

	out := make([]domain.Question, 0, len(ids))
	var missing []string
	for i, v := range values {
		q, ok := decodeQuestion(v)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		out = append(out, q)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.backing.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	return append(out, loaded...), nil
}

// Invalidate drops the cached pool for every instance.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

func (c *QuestionCache) cachedPool(ctx context.Context) ([]domain.Question, bool) {
	values, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil || len(values) == 0 {
		return nil, false
	}
	pool := make([]domain.Question, 0, len(values))
	for _, raw := range values {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		pool = append(pool, q)
	}
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].CreatedAt.Equal(pool[j].CreatedAt) {
			return pool[i].CreatedAt.After(pool[j].CreatedAt)
		}
		return pool[i].ID < pool[j].ID
	})
	return pool, true
}

func decodeQuestion(v interface{}) (domain.Question, bool) {
	raw, ok := v.(string)
	if !ok {
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return domain.Question{}, false
	}
	return q, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

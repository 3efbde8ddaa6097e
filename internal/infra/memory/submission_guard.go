package memory

import (
	"context"
	"sync"
	"time"
)

// SubmissionGuard is an in-memory implementation of app.SubmissionGuard.
// Claimed keys expire after ttl.
type SubmissionGuard struct {
	ttl   time.Duration
	clock func() time.Time

	mu   sync.Mutex
	keys map[string]time.Time
}

func NewSubmissionGuard(ttl time.Duration) *SubmissionGuard {
	return &SubmissionGuard{
		ttl:   ttl,
		clock: time.Now,
		keys:  make(map[string]time.Time),
	}
}

func (g *SubmissionGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	g.sweepLocked(now)
	if _, ok := g.keys[key]; ok {
		return false, nil
	}
	g.keys[key] = now.Add(g.ttl)
	return true, nil
}

func (g *SubmissionGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

func (g *SubmissionGuard) sweepLocked(now time.Time) {
	for key, expiresAt := range g.keys {
		if !expiresAt.After(now) {
			delete(g.keys, key)
		}
	}
}

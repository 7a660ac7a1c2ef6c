package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const localMaxKeys = 10000

// LocalLimiter is a per-key token bucket held in process memory. Idle
// buckets are evicted after two windows, which only ever refills them.
type LocalLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets *expirable.LRU[string, *rate.Limiter]
	now     func() time.Time
}

func NewLocal(requests int, window time.Duration) *LocalLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &LocalLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		buckets: expirable.NewLRU[string, *rate.Limiter](localMaxKeys, nil, 2*window),
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	bucket, ok := l.buckets.Get(key)
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(key, bucket)
	}
	l.mu.Unlock()
	return bucket.AllowN(l.now(), 1), nil
}

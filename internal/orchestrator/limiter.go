package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter gates every trial: first a global token bucket, then one of the
// provider's in-flight slots.
type Limiter struct {
	bucket      *rate.Limiter
	perProvider int64

	mu    sync.Mutex
	slots map[string]*semaphore.Weighted
}

// NewLimiter returns a Limiter. rps <= 0 disables the token bucket;
// perProvider <= 0 means one in-flight trial per provider.
func NewLimiter(rps float64, burst, perProvider int) *Limiter {
	l := &Limiter{perProvider: int64(perProvider), slots: make(map[string]*semaphore.Weighted)}
	if l.perProvider <= 0 {
		l.perProvider = 1
	}
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		l.bucket = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return l
}

func (l *Limiter) slot(provider string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[provider]
	if !ok {
		s = semaphore.NewWeighted(l.perProvider)
		l.slots[provider] = s
	}
	return s
}

// Acquire waits for a token and a provider slot. The returned release func
// must be called once the trial finishes.
func (l *Limiter) Acquire(ctx context.Context, provider string) (func(), error) {
	if l.bucket != nil {
		if err := l.bucket.Wait(ctx); err != nil {
			return func() {}, err
		}
	}
	s := l.slot(provider)
	if err := s.Acquire(ctx, 1); err != nil {
		return func() {}, err
	}
	var once sync.Once
	return func() { once.Do(func() { s.Release(1) }) }, nil
}

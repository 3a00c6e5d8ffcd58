package orchestrator

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_PerProviderSlot(t *testing.T) {
	l := NewLimiter(0, 0, 1)
	release, err := l.Acquire(context.Background(), "p")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "p"); err == nil {
		t.Fatalf("second acquire on the same provider should block")
	}
	// other providers are independent
	r2, err := l.Acquire(context.Background(), "q")
	if err != nil {
		t.Fatalf("acquire q: %v", err)
	}
	r2()
	release()
	release() // idempotent
	r3, err := l.Acquire(context.Background(), "p")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	r3()
}

func TestLimiter_TokenBucket(t *testing.T) {
	l := NewLimiter(10, 1, 4)
	start := time.Now()
	for i := 0; i < 3; i++ {
		r, err := l.Acquire(context.Background(), "p")
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		r()
	}
	// burst 1 at 10/s: the 2nd and 3rd tokens need ~100ms each
	if el := time.Since(start); el < 150*time.Millisecond {
		t.Fatalf("token bucket not applied, elapsed %v", el)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Acquire(ctx, "p"); err == nil {
		t.Fatalf("expected error on canceled context")
	}
}

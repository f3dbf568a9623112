package services

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, _ := l.Allow(ctx, "payments:u1", 3, time.Hour)
		if !d.Allowed {
			t.Fatalf("hit %d should be allowed", i)
		}
		if d.Remaining != 3-i {
			t.Errorf("hit %d remaining = %d; want %d", i, d.Remaining, 3-i)
		}
	}

	d, _ := l.Allow(ctx, "payments:u1", 3, time.Hour)
	if d.Allowed {
		t.Fatal("4th hit should be limited")
	}
	if d.RetryAfter != time.Hour {
		t.Errorf("retry after = %v; want 1h", d.RetryAfter)
	}

	// other keys are independent
	if d, _ := l.Allow(ctx, "payments:u2", 3, time.Hour); !d.Allowed {
		t.Error("other key should be allowed")
	}

	now = now.Add(time.Hour)
	if d, _ := l.Allow(ctx, "payments:u1", 3, time.Hour); !d.Allowed {
		t.Error("new window should be allowed")
	}
}

func TestNewRateLimiterFallsBackWithoutRedis(t *testing.T) {
	if _, ok := NewRateLimiter("").(*MemoryLimiter); !ok {
		t.Error("empty REDIS_URL should give the in-process limiter")
	}
	if _, ok := NewRateLimiter("redis://127.0.0.1:1/0").(*MemoryLimiter); !ok {
		t.Error("unreachable redis should give the in-process limiter")
	}
}

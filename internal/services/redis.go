package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the result of a rate limit check
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts hits per key in fixed windows
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// NewRateLimiter returns a Redis-backed limiter when redisURL is set and
// reachable, and an in-process limiter otherwise.
func NewRateLimiter(redisURL string) RateLimiter {
	if redisURL == "" {
		log.Println("REDIS_URL not set, using in-process rate limiter")
		return NewMemoryLimiter()
	}
	client, err := NewRedisClient(redisURL)
	if err != nil {
		log.Printf("Redis unavailable (%v), using in-process rate limiter", err)
		return NewMemoryLimiter()
	}
	return NewRedisLimiter(client)
}

// NewRedisClient parses the URL and checks the connection
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	log.Println("Redis connection established")
	return client, nil
}

// RedisLimiter keeps one INCR counter per key and window
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	k := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, err
	}

	return decide(int(incr.Val()), limit, ttl.Val()), nil
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window limiter
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: map[string]*memoryWindow{}, now: time.Now}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		l.windows[key] = w
	}
	w.count++

	// drop stale windows so the map does not grow without bound
	if len(l.windows) > 10000 {
		for k, other := range l.windows {
			if !now.Before(other.resetAt) {
				delete(l.windows, k)
			}
		}
	}

	return decide(w.count, limit, w.resetAt.Sub(now)), nil
}

func decide(count, limit int, ttl time.Duration) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{Allowed: count <= limit, Remaining: remaining}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d
}

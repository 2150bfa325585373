package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/aegis-valuation/pkg/redis"
)

// Limiter decides whether a client may issue another request
type Limiter interface {
	Allow(ctx context.Context, client string) (bool, error)
}

// localIdleTTL is the minimum idle time before a client's bucket is dropped
const localIdleTTL = 10 * time.Minute

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process token bucket per client
// ⭐ idle client는 ttl 경과 후 제거 (ttl >= 버킷이 가득 차는 시간이므로 제거해도 추가 토큰 없음)
type LocalLimiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	clients   map[string]*localClient
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter creates a per-client token-bucket limiter
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	ttl := localIdleTTL
	if rps > 0 {
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > ttl {
			ttl = refill
		}
	}
	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		clients: make(map[string]*localClient),
		now:     time.Now,
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(_ context.Context, client string) (bool, error) {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		l.sweep(now)
	}
	c, ok := l.clients[client]
	if !ok {
		c = &localClient{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[client] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1), nil
}

// Len returns the number of tracked clients
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// sweep drops clients idle for at least ttl; caller holds mu
func (l *LocalLimiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.ttl {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RedisLimiter shares a sliding-window budget across API instances
type RedisLimiter struct {
	limiter *redis.RateLimiter
	limit   int
	window  time.Duration
}

// NewRedisLimiter allows limit requests per window per client
func NewRedisLimiter(limiter *redis.RateLimiter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		limiter: limiter,
		limit:   limit,
		window:  window,
	}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, client string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.APIRateLimit(client, l.limit, l.window))
	return allowed, err
}

package utils

import (
	"context"
	"crypto/tls"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter reserves a key for a window. Allow returns false together with
// the time left when the key is still reserved.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

// MemoryLimiter keeps reservations in process.
type MemoryLimiter struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryLimiter(now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{until: make(map[string]time.Time), now: now}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.now()
	if until, ok := m.until[key]; ok && t.Before(until) {
		return false, until.Sub(t), nil
	}
	m.until[key] = t.Add(window)

	// drop stale entries now and then so the map stays small
	if len(m.until) > 1024 {
		for k, until := range m.until {
			if !t.Before(until) {
				delete(m.until, k)
			}
		}
	}
	return true, 0, nil
}

// RedisLimiter shares reservations between instances with SET NX PX.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisLimiter namespaces every key under prefix, joined with one colon.
func NewRedisLimiter(rdb *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: strings.TrimRight(prefix, ":")}
}

func (r *RedisLimiter) key(k string) string {
	return r.prefix + ":" + k
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	k := r.key(key)
	ok, err := r.rdb.SetNX(ctx, k, 1, window).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := r.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		ttl = window
	}
	return false, ttl, nil
}

// NewRedisClient connects to addr and pings it. It returns nil when addr is
// empty or the server does not answer, and callers fall back to memory.
func NewRedisClient(addr, password string, db int, useTLS bool) *redis.Client {
	if addr == "" {
		return nil
	}
	var tlsConf *tls.Config
	if useTLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  password,
		DB:        db,
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] ping %s failed, using in-memory limiter: %v", addr, err)
		_ = client.Close()
		return nil
	}
	return client
}

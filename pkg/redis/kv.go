package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// KV stores JSON values under "<prefix>:<id>" with a TTL.
type KV interface {
	Put(ctx context.Context, id string, v any, ttl time.Duration) error
	// Get decodes the value into dst and reports whether it existed.
	Get(ctx context.Context, id string, dst any) (bool, error)
	Delete(ctx context.Context, id string) error
}

type redisKV struct {
	rdb    goredis.Cmdable
	prefix string
}

func NewKV(rdb goredis.Cmdable, prefix string) KV {
	return &redisKV{rdb: rdb, prefix: prefix}
}

func (k *redisKV) key(id string) string { return k.prefix + ":" + id }

func (k *redisKV) Put(ctx context.Context, id string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", k.key(id), err)
	}
	if err := k.rdb.Set(ctx, k.key(id), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k.key(id), err)
	}
	return nil
}

func (k *redisKV) Get(ctx context.Context, id string, dst any) (bool, error) {
	b, err := k.rdb.Get(ctx, k.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", k.key(id), err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", k.key(id), err)
	}
	return true, nil
}

func (k *redisKV) Delete(ctx context.Context, id string) error {
	if err := k.rdb.Del(ctx, k.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", k.key(id), err)
	}
	return nil
}

// MemoryKV is an in-process KV used by tests and by CLI commands that run
// without Redis.
type MemoryKV struct {
	mu   sync.Mutex
	now  func() time.Time
	data map[string]memEntry
}

type memEntry struct {
	raw       []byte
	expiresAt time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{now: time.Now, data: make(map[string]memEntry)}
}

// SetClock overrides the time source used for expiry.
func (m *MemoryKV) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryKV) Put(_ context.Context, id string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{raw: b}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[id] = e
	return nil
}

func (m *MemoryKV) Get(_ context.Context, id string, dst any) (bool, error) {
	m.mu.Lock()
	e, ok := m.data[id]
	if ok && !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.raw, dst)
}

func (m *MemoryKV) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryItem struct {
	data       []byte
	expireAt   time.Time
	lastAccess time.Time
}

// MemoryCache implements Service in process memory with LRU eviction.
// Values are kept as JSON so callers never share mutable state.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*memoryItem
	maxSize int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
		Now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		items:   make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
		now:     cfg.Now,
		stop:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go mc.cleanupLoop(cfg.CleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if _, exists := mc.items[key]; !exists && len(mc.items) >= mc.maxSize {
		mc.evictLocked(now)
	}
	if expiration <= 0 {
		expiration = 7 * 24 * time.Hour
	}
	mc.items[key] = &memoryItem{data: data, expireAt: now.Add(expiration), lastAccess: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	item, ok := mc.items[key]
	now := mc.now()
	if ok && !now.Before(item.expireAt) {
		delete(mc.items, key)
		ok = false
	}
	var data []byte
	if ok {
		item.lastAccess = now
		data = item.data
	}
	mc.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.items, key)
	}
	return nil
}

func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("cache: bad pattern %q: %w", pattern, err)
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for key := range mc.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(mc.items, key)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := mc.now()
	for _, key := range keys {
		if item, ok := mc.items[key]; ok && now.Before(item.expireAt) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := mc.now()
	if item, ok := mc.items[key]; ok && now.Before(item.expireAt) {
		return false, nil
	}
	mc.items[key] = &memoryItem{data: []byte(`"locked"`), expireAt: now.Add(ttl), lastAccess: now}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Len reports the number of live entries.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}

// evictLocked drops expired entries, or the least recently used one if none expired.
func (mc *MemoryCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, item := range mc.items {
		if !now.Before(item.expireAt) {
			delete(mc.items, key)
			continue
		}
		if oldestKey == "" || item.lastAccess.Before(oldest) {
			oldestKey, oldest = key, item.lastAccess
		}
	}
	if len(mc.items) >= mc.maxSize && oldestKey != "" {
		delete(mc.items, oldestKey)
	}
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.now()
			for key, item := range mc.items {
				if !now.Before(item.expireAt) {
					delete(mc.items, key)
				}
			}
			mc.mu.Unlock()
		case <-mc.stop:
			return
		}
	}
}

package memstore

import (
	"context"
	"sync"
	"time"

	myredis "campus_chat_server/internal/dao/redis"
)

var _ myredis.CacheService = (*Cache)(nil)

type cacheItem struct {
	value    string
	expireAt time.Time
}

// Cache CacheService 的内存实现
type Cache struct {
	mu      sync.Mutex
	strings map[string]cacheItem
	hashes  map[string]map[string]int64
}

// NewCache 创建内存缓存
func NewCache() *Cache {
	return &Cache{
		strings: make(map[string]cacheItem),
		hashes:  make(map[string]map[string]int64),
	}
}

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expireAt = time.Now().Add(ttl)
	}
	c.strings[key] = item
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.strings[key]
	if !ok {
		return "", nil
	}
	if !item.expireAt.IsZero() && time.Now().After(item.expireAt) {
		delete(c.strings, key)
		return "", nil
	}
	return item.value, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.strings, key)
	delete(c.hashes, key)
	return nil
}

func (c *Cache) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[key]
	if !ok {
		h = make(map[string]int64)
		c.hashes[key] = h
	}
	h[field] += delta
	return h[field], nil
}

func (c *Cache) HDel(ctx context.Context, key string, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.hashes[key]
	for _, f := range fields {
		delete(h, f)
	}
	if len(h) == 0 {
		delete(c.hashes, key)
	}
	return nil
}

func (c *Cache) HGetAll(ctx context.Context, key string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.hashes[key]))
	for f, n := range c.hashes[key] {
		out[f] = n
	}
	return out, nil
}

func (c *Cache) HSet(ctx context.Context, key, field string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[key]
	if !ok {
		h = make(map[string]int64)
		c.hashes[key] = h
	}
	h[field] = value
	return nil
}

// Package redis 提供 CacheService 接口的 Redis 实现
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"campus_chat_server/pkg/errorx"
)

// RedisCache Redis 缓存实现
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 使用已有客户端创建缓存实例
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Ping 检查连通性
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errorx.Wrap(err, errorx.CodeCacheError, "redis ping")
	}
	return nil
}

// Close 关闭连接池
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// ==================== String 操作 ====================

// Set 设置键值对并指定过期时间
func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

// Get 获取键对应的值（键不存在返回空字符串和 nil）
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

// Delete 删除键
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis delete key %s", key)
	}
	return nil
}

// ==================== Hash 操作 ====================

// HIncrBy 原子增量
func (r *RedisCache) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	n, err := r.client.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, errorx.Wrapf(err, errorx.CodeCacheError, "redis hincrby %s %s", key, field)
	}
	return n, nil
}

// HDel 删除 hash 字段
func (r *RedisCache) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, key, fields...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis hdel %s", key)
	}
	return nil
}

// HGetAll 读取整个 hash，无法解析的字段会被跳过
func (r *RedisCache) HGetAll(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis hgetall %s", key)
	}
	out := make(map[string]int64, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}

// HSet 设置单个字段
func (r *RedisCache) HSet(ctx context.Context, key, field string, value int64) error {
	if err := r.client.HSet(ctx, key, field, value).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis hset %s %s", key, field)
	}
	return nil
}

// Package redis 定义缓存服务接口
// Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
type CacheService interface {
	// ==================== String 操作 ====================

	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// Delete 删除键（不存在也视为成功）
	Delete(ctx context.Context, key string) error

	// ==================== Hash 操作 ====================

	// HIncrBy 对 hash 字段做原子增量，返回增量后的值
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	// HDel 删除 hash 字段
	HDel(ctx context.Context, key string, fields ...string) error
	// HGetAll 读取整个 hash，值解析为整数
	HGetAll(ctx context.Context, key string) (map[string]int64, error)
	// HSet 设置 hash 字段为给定值
	HSet(ctx context.Context, key, field string, value int64) error
}

// Package redis 提供 Redis 缓存操作的封装
// 本文件仅包含 Redis 连接初始化逻辑
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"strconv"
	"time"

	"campus_chat_server/internal/config"

	"github.com/redis/go-redis/v9"
)

// Init 初始化 Redis 连接并检查连通性
// 连接不可用时返回错误，由调用方决定是否退出
func Init(conf *config.RedisConfig) (*RedisCache, error) {
	// 拼接地址：host:port
	addr := conf.Host + ":" + strconv.Itoa(conf.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.Password,
		DB:       conf.Db,
		// 连接池配置
		PoolSize:     50,
		MinIdleConns: 10,
		DialTimeout:  3 * time.Second,
	})

	cache := NewRedisCache(client)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return cache, nil
}

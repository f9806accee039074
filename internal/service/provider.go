// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"campus_chat_server/internal/dao/mysql/repository"
	myredis "campus_chat_server/internal/dao/redis"
	"campus_chat_server/internal/infrastructure/metrics"
	"campus_chat_server/internal/service/auth"
	"campus_chat_server/internal/service/chat"
	"campus_chat_server/internal/service/connection"
	"campus_chat_server/internal/service/message"
	"campus_chat_server/internal/service/permission"
	"campus_chat_server/internal/service/presence"
	"campus_chat_server/internal/service/unread"
	"campus_chat_server/pkg/util/keylock"
)

// Deps 构造 Services 需要的外部依赖
type Deps struct {
	Repos              *repository.Repositories
	Cache              myredis.CacheService
	Metrics            *metrics.Metrics // 可以为 nil
	MaxContentLength   int
	RefreshExpiryHours int
	// NewDispatcher 为空时使用本机投递
	// kafka 模式下由 main 包装本机投递
	NewDispatcher func(local *chat.LocalDispatcher) chat.Dispatcher
}

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层和网关通过此结构访问各个 Service
type Services struct {
	Auth       AuthService
	Connection ConnectionService
	Message    MessageService
	Router     SendService
	Unread     UnreadService
	Presence   *presence.Registry
	Local      *chat.LocalDispatcher
}

// NewServices 创建并注入所有 Service 实例
// 连接服务、消息路由与未读计数共用同一组 pair 锁
func NewServices(d Deps) *Services {
	locks := keylock.New()
	registry := presence.NewRegistry(d.Metrics)
	local := chat.NewLocalDispatcher(registry, d.Metrics)

	var dispatcher chat.Dispatcher = local
	if d.NewDispatcher != nil {
		dispatcher = d.NewDispatcher(local)
	}

	tracker := unread.NewTracker(unread.NewCacheCounterStore(d.Cache), d.Repos.Message, locks)
	router := chat.NewRouter(chat.RouterDeps{
		Repos:            d.Repos,
		Gate:             permission.NewGate(d.Repos),
		Presence:         registry,
		Dispatcher:       dispatcher,
		Unread:           tracker,
		Locks:            locks,
		Metrics:          d.Metrics,
		MaxContentLength: d.MaxContentLength,
	})

	return &Services{
		Auth:       auth.NewAuthService(d.Repos, d.Cache, d.RefreshExpiryHours),
		Connection: connection.NewConnectionService(d.Repos, locks, d.Metrics),
		Message:    message.NewMessageService(d.Repos),
		Router:     router,
		Unread:     tracker,
		Presence:   registry,
		Local:      local,
	}
}

// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"campus_chat_server/internal/gateway/websocket"
	"campus_chat_server/internal/service"

	"go.uber.org/zap"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Auth       *AuthHandler
	Connection *ConnectionHandler
	Message    *MessageHandler
	Admin      *AdminHandler
	Ws         *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
// 同时初始化参数校验的翻译器和自定义规则
func NewHandlers(svc *service.Services, gw *websocket.Gateway) *Handlers {
	if err := InitTrans("zh"); err != nil {
		zap.L().Error("init validator trans failed", zap.Error(err))
	}
	return &Handlers{
		Auth:       NewAuthHandler(svc.Auth),
		Connection: NewConnectionHandler(svc.Connection),
		Message:    NewMessageHandler(svc.Message, svc.Unread),
		Admin:      NewAdminHandler(svc.Auth, svc.Unread),
		Ws:         NewWsHandler(gw),
	}
}

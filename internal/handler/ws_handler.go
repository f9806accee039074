// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接入口
package handler

import (
	"campus_chat_server/internal/gateway/websocket"
	"campus_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// WsHandler 实时通道入口
type WsHandler struct {
	gw *websocket.Gateway
}

// NewWsHandler 构造函数
func NewWsHandler(gw *websocket.Gateway) *WsHandler {
	return &WsHandler{gw: gw}
}

// Connect 升级为 WebSocket
// GET /wss?token=xxx
// 连接建立后客户端需先发送 login 事件才会收到消息
func (h *WsHandler) Connect(c *gin.Context) {
	h.gw.ServeWS(c, middleware.PrincipalFrom(c))
}

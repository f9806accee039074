// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"campus_chat_server/internal/handler"
	"campus_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器，持有 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 构造函数
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	// 公开接口
	rt.RegisterAuthRoutes(r)

	// 需要认证的接口
	authed := r.Group("/")
	authed.Use(middleware.JWTAuth())
	{
		rt.RegisterConnectionRoutes(authed) // 连接关系
		rt.RegisterMessageRoutes(authed)    // 消息历史与未读
		rt.RegisterAdminRoutes(authed)      // 管理员
		rt.RegisterWebSocketRoutes(authed)  // 实时通道
	}
}

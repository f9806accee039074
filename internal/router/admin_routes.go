// Package router 提供 HTTP 路由注册
// 本文件定义管理员相关的路由
package router

import (
	"campus_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理员相关路由（需要认证 + 管理员角色）
func (rt *Router) RegisterAdminRoutes(rg *gin.RouterGroup) {
	adminGroup := rg.Group("/admin")
	adminGroup.Use(middleware.AdminOnly())
	{
		adminGroup.POST("/users", rt.handlers.Admin.ProvisionUser)                  // 开通账号
		adminGroup.POST("/unread/:userId/recount", rt.handlers.Admin.RecountUnread) // 重建未读计数
	}
}

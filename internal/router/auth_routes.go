// Package router 提供 HTTP 路由注册
// 本文件定义认证相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册认证相关路由（无需认证）
func (rt *Router) RegisterAuthRoutes(r *gin.Engine) {
	r.POST("/login", rt.handlers.Auth.Login)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/refresh", rt.handlers.Auth.RefreshToken) // Refresh Token 换新的 Access Token
		authGroup.POST("/logout", rt.handlers.Auth.Logout)        // 作废 Refresh Token
	}
}

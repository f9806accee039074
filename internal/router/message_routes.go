// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
// unread-counts 为静态段，优先于 :peerId 匹配
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/messages")
	{
		messageGroup.GET("/unread-counts", rt.handlers.Message.UnreadCounts) // 未读计数
		messageGroup.GET("/:peerId", rt.handlers.Message.GetMessageList)     // 私聊记录
		messageGroup.POST("/:peerId/read", rt.handlers.Message.MarkRead)     // 清零未读
	}
}

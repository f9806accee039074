// Package router 提供 HTTP 路由注册
// 本文件定义连接关系相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterConnectionRoutes 注册连接关系路由（需要认证）
func (rt *Router) RegisterConnectionRoutes(rg *gin.RouterGroup) {
	userGroup := rg.Group("/users/:id")
	{
		userGroup.POST("/connect", rt.handlers.Connection.RequestConnection)              // 向 :id 发起申请
		userGroup.GET("/connections", rt.handlers.Connection.ListConnections)             // :id 的全部连接
		userGroup.PUT("/connections/:peerId", rt.handlers.Connection.RespondConnection)   // 接受/拒绝
		userGroup.DELETE("/connections/:peerId", rt.handlers.Connection.RemoveConnection) // 删除已接受的连接
	}
}

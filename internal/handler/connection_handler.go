// Package handler 提供 HTTP 请求处理器
// 本文件处理连接关系相关的 API 请求
package handler

import (
	"campus_chat_server/internal/dto/request"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/infrastructure/middleware"
	"campus_chat_server/internal/model"
	"campus_chat_server/internal/service"
	"campus_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// ConnectionHandler 连接关系请求处理器
type ConnectionHandler struct {
	connSvc service.ConnectionService
}

// NewConnectionHandler 构造函数
func NewConnectionHandler(connSvc service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connSvc: connSvc}
}

// pathID 读取并校验路径中的用户 id
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !ValidPrincipalID(id) {
		HandleError(c, errorx.Newf(errorx.CodeInvalidParam, "非法的用户id %q", id))
		return "", false
	}
	return id, true
}

// selfOnly 路径中的 :id 必须是当前用户，admin 放行时 allowAdmin 为 true
func selfOnly(c *gin.Context, id string, allowAdmin bool) bool {
	caller := middleware.PrincipalFrom(c)
	if caller.ID == id || (allowAdmin && caller.Role == model.RoleAdmin) {
		return true
	}
	HandleError(c, errorx.New(errorx.CodePermissionDenied, "只能操作自己的连接"))
	return false
}

// RequestConnection 向 :id 发起连接申请
// POST /users/:id/connect
func (h *ConnectionHandler) RequestConnection(c *gin.Context) {
	target, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller := middleware.PrincipalFrom(c)
	conn, err := h.connSvc.RequestConnection(caller.ID, target)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewConnectionRespond(conn, caller.ID))
}

// RespondConnection :id 接受或拒绝 :peerId 发来的申请
// PUT /users/:id/connections/:peerId
// 请求体: request.RespondConnectionRequest
func (h *ConnectionHandler) RespondConnection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	peer, ok := pathID(c, "peerId")
	if !ok || !selfOnly(c, id, false) {
		return
	}
	var req request.RespondConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	conn, err := h.connSvc.RespondConnection(id, peer, model.ConnectionStatus(req.Status))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewConnectionRespond(conn, id))
}

// RemoveConnection 删除 :id 与 :peerId 之间已接受的连接
// DELETE /users/:id/connections/:peerId
func (h *ConnectionHandler) RemoveConnection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	peer, ok := pathID(c, "peerId")
	if !ok || !selfOnly(c, id, true) {
		return
	}
	if err := h.connSvc.RemoveConnection(id, peer); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// ListConnections 列出 :id 的全部连接
// GET /users/:id/connections
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !selfOnly(c, id, true) {
		return
	}
	data, err := h.connSvc.ListConnections(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

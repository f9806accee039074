package handler

import (
	"campus_chat_server/internal/dto/request"
	"campus_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员接口，路由层挂载 AdminOnly
type AdminHandler struct {
	authSvc   service.AuthService
	unreadSvc service.UnreadService
}

// NewAdminHandler 构造函数
func NewAdminHandler(authSvc service.AuthService, unreadSvc service.UnreadService) *AdminHandler {
	return &AdminHandler{authSvc: authSvc, unreadSvc: unreadSvc}
}

// ProvisionUser 开通账号
// POST /admin/users
// 请求体: request.ProvisionUserRequest
func (h *AdminHandler) ProvisionUser(c *gin.Context) {
	var req request.ProvisionUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.authSvc.Provision(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// RecountUnread 按未读消息重建 :userId 的未读计数
// POST /admin/unread/:userId/recount
func (h *AdminHandler) RecountUnread(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	data, err := h.unreadSvc.Recount(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

package handler

import (
	"campus_chat_server/internal/infrastructure/middleware"
	"campus_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息历史与未读计数
type MessageHandler struct {
	messageSvc service.MessageService
	unreadSvc  service.UnreadService
}

// NewMessageHandler 构造函数
func NewMessageHandler(messageSvc service.MessageService, unreadSvc service.UnreadService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc, unreadSvc: unreadSvc}
}

// GetMessageList 与 :peerId 的全部聊天记录
// GET /messages/:peerId
func (h *MessageHandler) GetMessageList(c *gin.Context) {
	peer, ok := pathID(c, "peerId")
	if !ok {
		return
	}
	data, err := h.messageSvc.GetMessageList(middleware.PrincipalFrom(c).ID, peer)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UnreadCounts 当前用户的未读计数 {peerId: count}
// GET /messages/unread-counts
func (h *MessageHandler) UnreadCounts(c *gin.Context) {
	data, err := h.unreadSvc.Snapshot(c.Request.Context(), middleware.PrincipalFrom(c).ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// MarkRead 打开与 :peerId 的会话，清零未读
// POST /messages/:peerId/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	peer, ok := pathID(c, "peerId")
	if !ok {
		return
	}
	if err := h.unreadSvc.OnConversationOpened(c.Request.Context(), middleware.PrincipalFrom(c).ID, peer); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

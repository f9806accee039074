package respond

import (
	"time"

	"campus_chat_server/internal/model"
)

// 服务端推送的事件名
const (
	EventNewMessage   = "new message"
	EventMessageSent  = "message sent"
	EventMessageError = "message error"
)

// 客户端上行的事件名
const (
	EventLogin              = "login"
	EventPrivateMessage     = "private message"
	EventConversationOpened = "conversation opened"
)

// MessageRespond 一条私聊消息
// 使用位置:
//   - internal/service/message/service.go: GetMessageList
//   - internal/service/chat/router.go: Send
type MessageRespond struct {
	Id        uint64    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessageRespond 由持久化后的消息构造
func NewMessageRespond(m *model.Message) MessageRespond {
	return MessageRespond{
		Id:        m.Id,
		From:      m.SendId,
		To:        m.ReceiveId,
		Content:   m.Content,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

package websocket

import (
	"context"

	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/model"
	"campus_chat_server/internal/service/presence"
)

// MessageSender 私聊发送，由 chat.Router 实现
// 用于解耦 websocket 包对业务层具体实现的依赖
type MessageSender interface {
	Send(ctx context.Context, sender model.Principal, receiverID, content, originHandle string) (*respond.MessageRespond, error)
}

// ConversationOpener 打开会话时清零未读，由 unread.Tracker 实现
type ConversationOpener interface {
	OnConversationOpened(ctx context.Context, viewer, peer string) error
}

// SessionRegistry 在线会话注册表，由 presence.Registry 实现
type SessionRegistry interface {
	Register(principalID, handle string, sink presence.Sink) (*presence.Session, error)
	Unregister(handle string) bool
}

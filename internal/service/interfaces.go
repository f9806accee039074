// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层和实时网关调用
package service

import (
	"context"

	"campus_chat_server/internal/dto/request"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/model"
)

// AuthService 认证业务接口
type AuthService interface {
	// Login 用户 id + 密码登录
	Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error)
	// Refresh 用 Refresh Token 换新的 Access Token
	Refresh(ctx context.Context, refreshToken string) (*respond.RefreshTokenRespond, error)
	// Logout 作废 Refresh Token
	Logout(ctx context.Context, refreshToken string) error
	// Provision 开通账号（管理员）
	Provision(req request.ProvisionUserRequest) (*respond.UserRespond, error)
	// EnsureAdmin 启动时保证管理员账号存在
	EnsureAdmin(userID, password string) error
}

// ConnectionService 连接关系业务接口
type ConnectionService interface {
	// RequestConnection 发起连接申请
	RequestConnection(requester, target string) (*model.Connection, error)
	// RespondConnection 接受或拒绝申请
	RespondConnection(responder, requester string, decision model.ConnectionStatus) (*model.Connection, error)
	// RemoveConnection 删除已接受的连接
	RemoveConnection(a, b string) error
	// ListConnections 列出涉及该用户的全部连接
	ListConnections(principal string) ([]respond.ConnectionRespond, error)
}

// MessageService 消息历史业务接口
type MessageService interface {
	// GetMessageList 获取两个用户之间的聊天记录
	GetMessageList(viewer, peer string) ([]respond.MessageRespond, error)
}

// SendService 私聊发送
type SendService interface {
	Send(ctx context.Context, sender model.Principal, receiverID, content, originHandle string) (*respond.MessageRespond, error)
}

// UnreadService 未读计数
type UnreadService interface {
	OnConversationOpened(ctx context.Context, viewer, peer string) error
	Snapshot(ctx context.Context, viewer string) (map[string]int64, error)
	Recount(ctx context.Context, viewer string) (map[string]int64, error)
}

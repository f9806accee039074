// Package permission 私聊发送权限判定
// 每次发送都重新计算，不做缓存
package permission

import (
	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Decision 判定结果
type Decision struct {
	Allowed bool
	Reason  string // 拒绝原因，允许时为空
}

// rule 在已确认双方存在 accepted 连接后执行
type rule func(g *Gate, sender, receiver model.Principal) (Decision, error)

func allow(*Gate, model.Principal, model.Principal) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// replyFirst 接收方必须先给发送方发过消息
// 一旦存在就永久满足，消息不会被删除
func replyFirst(g *Gate, sender, receiver model.Principal) (Decision, error) {
	ok, err := g.messages.ExistsFrom(receiver.ID, sender.ID)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Reason: "需要等待对方先发起对话"}, nil
	}
	return Decision{Allowed: true}, nil
}

// 按发送方角色匹配的规则，优先于 pairRules
var senderRules = map[model.Role]rule{
	model.RoleAlumni: allow,
}

// 按 (发送方, 接收方) 角色匹配的规则
var pairRules = map[[2]model.Role]rule{
	{model.RoleStudent, model.RoleAlumni}: replyFirst,
}

// Gate 发送权限判定器
type Gate struct {
	connections repository.ConnectionRepository
	messages    repository.MessageRepository
}

// NewGate 构造函数
func NewGate(repos *repository.Repositories) *Gate {
	return &Gate{connections: repos.Connection, messages: repos.Message}
}

// Decide 返回判定结果及原因
func (g *Gate) Decide(sender, receiver model.Principal) (Decision, error) {
	// 1. 必须存在 accepted 连接
	low, high := model.CanonicalPair(sender.ID, receiver.ID)
	conn, err := g.connections.Find(low, high)
	if err != nil {
		if errorx.IsNotFound(err) {
			return Decision{Reason: "双方尚未建立连接"}, nil
		}
		zap.L().Error("permission: find connection error", zap.String("low", low), zap.String("high", high), zap.Error(err))
		return Decision{}, err
	}
	if conn.Status != model.ConnectionAccepted {
		return Decision{Reason: "双方尚未建立连接"}, nil
	}

	// 2. 角色规则
	if r, ok := senderRules[sender.Role]; ok {
		return r(g, sender, receiver)
	}
	if r, ok := pairRules[[2]model.Role{sender.Role, receiver.Role}]; ok {
		return r(g, sender, receiver)
	}
	return Decision{Allowed: true}, nil
}

// CanSend 是否允许 sender 给 receiver 发消息
func (g *Gate) CanSend(sender, receiver model.Principal) (bool, error) {
	d, err := g.Decide(sender, receiver)
	return d.Allowed, err
}

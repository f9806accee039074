// Package connection 实现两人之间的连接关系状态机
// 状态迁移: 无 -> pending -> accepted / rejected，accepted 可以被删除回到无
// 同一对用户的写操作通过 keylock 串行执行
package connection

import (
	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/infrastructure/metrics"
	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/keylock"

	"go.uber.org/zap"
)

// connectionService 连接关系业务逻辑实现
type connectionService struct {
	repos   *repository.Repositories
	locks   *keylock.KeyedMutex
	metrics *metrics.Metrics
}

// NewConnectionService 构造函数
// locks 需要与消息路由共用同一个实例
func NewConnectionService(repos *repository.Repositories, locks *keylock.KeyedMutex, m *metrics.Metrics) *connectionService {
	return &connectionService{repos: repos, locks: locks, metrics: m}
}

// RequestConnection 发起连接申请，创建 pending 记录
// 两人之间只要存在任意状态的记录就返回 DuplicateConnection
func (s *connectionService) RequestConnection(requester, target string) (conn *model.Connection, err error) {
	defer func() { s.metrics.RecordConnectionOp("request", errorx.Kind(err)) }()

	// 1. 参数校验
	if requester == "" || target == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "用户id不能为空")
	}
	if requester == target {
		return nil, errorx.New(errorx.CodeInvalidParam, "不能向自己发起连接")
	}
	if _, err := s.repos.User.FindByUuid(target); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Newf(errorx.CodeNotFound, "用户 %s 不存在", target)
		}
		zap.L().Error("find target user error", zap.String("target", target), zap.Error(err))
		return nil, err
	}

	low, high := model.CanonicalPair(requester, target)
	unlock := s.locks.Lock(keylock.PairKey(low, high))
	defer unlock()

	// 2. 任意方向已有记录都视为重复
	existing, err := s.repos.Connection.Find(low, high)
	if err == nil {
		return nil, errorx.Newf(errorx.CodeDuplicateConnection, "双方之间已存在 %s 状态的连接", existing.Status)
	}
	if !errorx.IsNotFound(err) {
		zap.L().Error("find connection error", zap.String("low", low), zap.String("high", high), zap.Error(err))
		return nil, err
	}

	// 3. 创建，唯一索引兜底
	conn = &model.Connection{
		LowId:       low,
		HighId:      high,
		Status:      model.ConnectionPending,
		RequesterId: requester,
	}
	if err := s.repos.Connection.Create(conn); err != nil {
		return nil, err
	}
	zap.L().Info("connection requested", zap.String("requester", requester), zap.String("target", target))
	return conn, nil
}

// RespondConnection 响应连接申请
// 只有 pending 状态且响应方不是发起人时才允许，否则返回 InvalidTransition
func (s *connectionService) RespondConnection(responder, requester string, decision model.ConnectionStatus) (conn *model.Connection, err error) {
	defer func() { s.metrics.RecordConnectionOp("respond", errorx.Kind(err)) }()

	if responder == "" || requester == "" || responder == requester {
		return nil, errorx.New(errorx.CodeInvalidParam, "用户id不合法")
	}
	if decision != model.ConnectionAccepted && decision != model.ConnectionRejected {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "不支持的响应状态 %q", decision)
	}

	low, high := model.CanonicalPair(responder, requester)
	unlock := s.locks.Lock(keylock.PairKey(low, high))
	defer unlock()

	// 条件更新：status=pending AND requester_id<>responder
	if err := s.repos.Connection.Respond(low, high, responder, decision); err != nil {
		return nil, err
	}
	conn, err = s.repos.Connection.Find(low, high)
	if err != nil {
		return nil, err
	}
	zap.L().Info("connection responded",
		zap.String("responder", responder),
		zap.String("requester", requester),
		zap.String("status", string(decision)))
	return conn, nil
}

// RemoveConnection 删除已接受的连接，删除后双方可以重新发起申请
func (s *connectionService) RemoveConnection(a, b string) (err error) {
	defer func() { s.metrics.RecordConnectionOp("remove", errorx.Kind(err)) }()

	if a == "" || b == "" || a == b {
		return errorx.New(errorx.CodeInvalidParam, "用户id不合法")
	}
	low, high := model.CanonicalPair(a, b)
	unlock := s.locks.Lock(keylock.PairKey(low, high))
	defer unlock()

	if err := s.repos.Connection.DeleteAccepted(low, high); err != nil {
		return err
	}
	zap.L().Info("connection removed", zap.String("a", a), zap.String("b", b))
	return nil
}

// ListConnections 列出涉及该用户的全部连接
func (s *connectionService) ListConnections(principal string) ([]respond.ConnectionRespond, error) {
	if principal == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "用户id不能为空")
	}
	conns, err := s.repos.Connection.ListByUser(principal)
	if err != nil {
		return nil, err
	}
	rsp := make([]respond.ConnectionRespond, 0, len(conns))
	for i := range conns {
		rsp = append(rsp, respond.NewConnectionRespond(&conns[i], principal))
	}
	return rsp, nil
}

// IsAccepted 两人之间是否存在 accepted 连接
func (s *connectionService) IsAccepted(a, b string) (bool, error) {
	low, high := model.CanonicalPair(a, b)
	conn, err := s.repos.Connection.Find(low, high)
	if err != nil {
		if errorx.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return conn.Status == model.ConnectionAccepted, nil
}

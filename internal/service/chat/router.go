// router.go
// 核心职责：私聊发送主流程
// 1. 校验参数与发送权限
// 2. 持久化消息并获得唯一 id
// 3. 推送给双方在线会话
// 4. 更新接收方未读计数
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/infrastructure/metrics"
	"campus_chat_server/internal/model"
	"campus_chat_server/internal/service/permission"
	"campus_chat_server/internal/service/presence"
	"campus_chat_server/internal/service/unread"
	"campus_chat_server/pkg/constants"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/keylock"

	"go.uber.org/zap"
)

// deliverTimeout 入库之后推送与计数的超时
const deliverTimeout = 5 * time.Second

// PermissionChecker 发送权限判定
type PermissionChecker interface {
	Decide(sender, receiver model.Principal) (permission.Decision, error)
}

// RouterDeps 路由依赖
type RouterDeps struct {
	Repos            *repository.Repositories
	Gate             PermissionChecker
	Presence         *presence.Registry
	Dispatcher       Dispatcher
	Unread           *unread.Tracker
	Locks            *keylock.KeyedMutex
	Metrics          *metrics.Metrics
	MaxContentLength int
}

// Router 私聊消息路由
type Router struct {
	repos      *repository.Repositories
	gate       PermissionChecker
	presence   *presence.Registry
	dispatcher Dispatcher
	unread     *unread.Tracker
	locks      *keylock.KeyedMutex
	metrics    *metrics.Metrics
	maxContent int
}

// NewRouter 构造函数
func NewRouter(deps RouterDeps) *Router {
	maxContent := deps.MaxContentLength
	if maxContent <= 0 {
		maxContent = constants.MAX_CONTENT_LENGTH
	}
	return &Router{
		repos:      deps.Repos,
		gate:       deps.Gate,
		presence:   deps.Presence,
		dispatcher: deps.Dispatcher,
		unread:     deps.Unread,
		locks:      deps.Locks,
		metrics:    deps.Metrics,
		maxContent: maxContent,
	}
}

// Send sender 给 receiverID 发一条消息
// originHandle 为发起会话，REST 调用时为空
// 失败时向发起会话推送 message error，其他会话不受影响
func (r *Router) Send(ctx context.Context, sender model.Principal, receiverID, content, originHandle string) (rsp *respond.MessageRespond, err error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordSend(errorx.Kind(err), time.Since(start))
		if err != nil {
			r.notifyError(originHandle, err)
		}
	}()

	// 1. 参数校验
	if err := r.validate(sender.ID, receiverID, content); err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(keylock.PairKey(sender.ID, receiverID))
	defer unlock()

	// 2. 发送权限，接收方角色以存储为准
	receiver, err := r.repos.User.FindByUuid(receiverID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Newf(errorx.CodeNotFound, "用户 %s 不存在", receiverID)
		}
		return nil, errorx.Wrap(err, errorx.CodeDBError, "查询接收方失败")
	}
	decision, err := r.gate.Decide(sender, receiver.Principal())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeDBError, "权限校验失败")
	}
	if !decision.Allowed {
		return nil, errorx.New(errorx.CodePermissionDenied, decision.Reason)
	}

	// 3. 入库，存储分配 id
	message := model.Message{
		SendId:    sender.ID,
		ReceiveId: receiverID,
		Content:   content,
	}
	if err := r.repos.Message.Create(&message); err != nil {
		zap.L().Error("persist message error", zap.String("from", sender.ID), zap.String("to", receiverID), zap.Error(err))
		if errorx.IsTransient(err) {
			return nil, err
		}
		return nil, errorx.Wrap(err, errorx.CodeDBError, "消息保存失败")
	}
	msg := respond.NewMessageRespond(&message)

	// 入库后不再受发送方连接断开的影响
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancel()

	// 4. 推送，失败不影响已入库的消息
	if err := r.dispatcher.Dispatch(deliverCtx, Delivery{Message: msg, OriginHandle: originHandle}); err != nil {
		zap.L().Error("dispatch message error", zap.Uint64("message_id", msg.Id), zap.Error(err))
	}

	// 5. 未读计数，计数可以通过 Recount 修复
	if err := r.unread.OnDelivered(deliverCtx, receiverID, sender.ID); err != nil {
		zap.L().Warn("unread counter not updated", zap.Uint64("message_id", msg.Id), zap.Error(err))
	}

	return &msg, nil
}

func (r *Router) validate(senderID, receiverID, content string) error {
	if senderID == "" || receiverID == "" {
		return errorx.New(errorx.CodeInvalidParam, "发送方和接收方不能为空")
	}
	if senderID == receiverID {
		return errorx.New(errorx.CodeInvalidParam, "不能给自己发消息")
	}
	if strings.TrimSpace(content) == "" {
		return errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}
	if n := utf8.RuneCountInString(content); n > r.maxContent {
		return errorx.Newf(errorx.CodeInvalidParam, "消息长度 %d 超过上限 %d", n, r.maxContent)
	}
	return nil
}

// notifyError 只通知发起会话
func (r *Router) notifyError(originHandle string, err error) {
	if originHandle == "" {
		return
	}
	s, ok := r.presence.Lookup(originHandle)
	if !ok {
		return
	}
	if derr := s.Deliver(presence.Event{Name: respond.EventMessageError, Data: errorMessage(err)}); derr != nil {
		r.metrics.RecordDropped()
		zap.L().Warn("message error dropped", zap.String("handle", originHandle), zap.Error(derr))
		return
	}
	r.metrics.RecordFanout(respond.EventMessageError)
}

// errorMessage 面向客户端的错误文本，隐藏底层错误
func errorMessage(err error) string {
	msg := errorx.ErrServerBusy.Msg
	var ce *errorx.CodeError
	if errors.As(err, &ce) {
		msg = ce.Msg
	}
	return errorx.Kind(err) + ": " + msg
}

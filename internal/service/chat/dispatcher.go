// Package chat 私聊消息路由
// dispatcher.go
// 核心职责：把已持久化的消息推送到在线会话
// 单机模式直接写本机会话，kafka 模式由 mq.KafkaRelay 转发到每个节点后再调用本机投递
package chat

import (
	"context"

	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/infrastructure/metrics"
	"campus_chat_server/internal/service/presence"

	"go.uber.org/zap"
)

// Delivery 一次投递，消息 id 在发布前已由存储分配
type Delivery struct {
	Message      respond.MessageRespond `json:"message"`
	OriginHandle string                 `json:"origin_handle,omitempty"` // 发起发送的会话，不回显
}

// Dispatcher 投递接口
// 支持两种实现：LocalDispatcher (单机), mq.KafkaRelay (多节点)
type Dispatcher interface {
	Dispatch(ctx context.Context, d Delivery) error
}

// LocalDispatcher 投递到本进程内的在线会话
type LocalDispatcher struct {
	presence *presence.Registry
	metrics  *metrics.Metrics
}

// NewLocalDispatcher 构造函数
func NewLocalDispatcher(reg *presence.Registry, m *metrics.Metrics) *LocalDispatcher {
	return &LocalDispatcher{presence: reg, metrics: m}
}

// Dispatch 接收方每个会话收到 new message
// 发送方除发起会话外的每个会话收到 message sent
func (d *LocalDispatcher) Dispatch(_ context.Context, dv Delivery) error {
	msg := dv.Message

	for _, s := range d.presence.LiveSessions(msg.To) {
		d.push(s, presence.Event{Name: respond.EventNewMessage, Data: msg})
	}
	for _, s := range d.presence.LiveSessions(msg.From) {
		if s.Handle == dv.OriginHandle {
			continue
		}
		d.push(s, presence.Event{Name: respond.EventMessageSent, Data: msg})
	}
	return nil
}

// push 缓冲区满的会话直接丢弃本次推送，消息已入库，客户端下次拉取即可补齐
func (d *LocalDispatcher) push(s *presence.Session, evt presence.Event) {
	if err := s.Deliver(evt); err != nil {
		d.metrics.RecordDropped()
		zap.L().Warn("push dropped",
			zap.String("user_id", s.PrincipalID),
			zap.String("handle", s.Handle),
			zap.String("event", evt.Name),
			zap.Error(err))
		return
	}
	d.metrics.RecordFanout(evt.Name)
}

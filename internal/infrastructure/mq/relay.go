package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"campus_chat_server/internal/service/chat"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/keylock"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// envelope topic 上的一条投递事件
type envelope struct {
	NodeID   string        `json:"node_id"`
	Delivery chat.Delivery `json:"delivery"`
}

// Dispatch 发布投递事件，key 为规整后的用户对
// 发布失败时退化为只投递本机会话
func (k *KafkaRelay) Dispatch(ctx context.Context, d chat.Delivery) error {
	value, err := json.Marshal(envelope{NodeID: k.nodeID, Delivery: d})
	if err != nil {
		return errorx.Wrap(err, errorx.CodeMQError, "序列化投递事件失败")
	}
	key := []byte(keylock.PairKey(d.Message.From, d.Message.To))
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		zap.L().Error("publish delivery error", zap.Uint64("message_id", d.Message.Id), zap.Error(err))
		if lerr := k.local.Dispatch(ctx, d); lerr != nil {
			zap.L().Error("local fallback error", zap.Error(lerr))
		}
		return errorx.Wrap(err, errorx.CodeMQError, "发布投递事件失败")
	}
	return nil
}

// Start 消费循环，ctx 取消后返回
func (k *KafkaRelay) Start(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("kafka relay panic", zap.Any("recover", r))
		}
	}()
	zap.L().Info("kafka relay started", zap.String("node_id", k.nodeID))
	for {
		kafkaMessage, err := k.reader.ReadMessage(ctx)
		if err != nil {
			// Reader 被 Close 后返回 io.EOF
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				zap.L().Info("kafka relay stopped", zap.String("node_id", k.nodeID))
				return
			}
			zap.L().Error("read delivery error", zap.Duration("retry_in", k.retryDelay), zap.Error(err))
			timer := time.NewTimer(k.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				zap.L().Info("kafka relay stopped", zap.String("node_id", k.nodeID))
				return
			case <-timer.C:
			}
			continue
		}
		k.handle(ctx, kafkaMessage)
	}
}

func (k *KafkaRelay) handle(ctx context.Context, kafkaMessage kafka.Message) {
	var env envelope
	if err := json.Unmarshal(kafkaMessage.Value, &env); err != nil {
		zap.L().Error("decode delivery error",
			zap.Int("partition", kafkaMessage.Partition),
			zap.Int64("offset", kafkaMessage.Offset),
			zap.Error(err))
		return
	}
	zap.L().Debug("delivery consumed",
		zap.String("from_node", env.NodeID),
		zap.Uint64("message_id", env.Delivery.Message.Id),
		zap.Int("partition", kafkaMessage.Partition),
		zap.Int64("offset", kafkaMessage.Offset))
	if err := k.local.Dispatch(ctx, env.Delivery); err != nil {
		zap.L().Error("local dispatch error", zap.Error(err))
	}
}

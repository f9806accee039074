// Package mq 多节点投递
// 每个节点把投递事件写入同一个 topic，并以各自的消费组读取全量事件
// 读到事件后交给本机投递，从而覆盖所有节点上的在线会话
package mq

import (
	"context"
	"time"

	myconfig "campus_chat_server/internal/config"
	"campus_chat_server/internal/service/chat"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter *kafka.Writer 满足该接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageReader *kafka.Reader 满足该接口
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaRelay 基于 Kafka 的 chat.Dispatcher 实现
type KafkaRelay struct {
	writer messageWriter
	reader messageReader
	local  chat.Dispatcher
	nodeID string
	// retryDelay 读取失败后的等待时间
	retryDelay time.Duration
}

const defaultRetryDelay = time.Second

// GroupID 每个节点独立消费组
func GroupID(nodeID string) string {
	return "chat-" + nodeID
}

// NewKafkaRelay 根据配置创建 Writer/Reader
func NewKafkaRelay(kafkaConfig myconfig.KafkaConfig, local chat.Dispatcher) *KafkaRelay {
	timeout := time.Duration(kafkaConfig.Timeout) * time.Second
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(kafkaConfig.HostPort),
		Topic:                  kafkaConfig.ChatTopic,
		Balancer:               &kafka.Hash{}, // 同一对用户落在同一分区，保证顺序
		WriteTimeout:           timeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaConfig.HostPort},
		Topic:          kafkaConfig.ChatTopic,
		CommitInterval: timeout,
		GroupID:        GroupID(kafkaConfig.NodeID),
		StartOffset:    kafka.LastOffset,
	})
	return newRelay(writer, reader, local, kafkaConfig.NodeID)
}

func newRelay(w messageWriter, r messageReader, local chat.Dispatcher, nodeID string) *KafkaRelay {
	return &KafkaRelay{writer: w, reader: r, local: local, nodeID: nodeID, retryDelay: defaultRetryDelay}
}

// Close 关闭 Writer/Reader
func (k *KafkaRelay) Close() {
	if err := k.writer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
	if err := k.reader.Close(); err != nil {
		zap.L().Error(err.Error())
	}
}

// CreateTopic 创建 topic，已存在时 Kafka 返回错误，仅记录日志
func CreateTopic(kafkaConfig myconfig.KafkaConfig) error {
	conn, err := kafka.Dial("tcp", kafkaConfig.HostPort)
	if err != nil {
		return err
	}
	defer conn.Close()

	partitions := kafkaConfig.Partition
	if partitions <= 0 {
		partitions = 1
	}
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             kafkaConfig.ChatTopic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}); err != nil {
		zap.L().Warn("create topic", zap.String("topic", kafkaConfig.ChatTopic), zap.Error(err))
	}
	return nil
}

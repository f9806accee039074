// Package model 定义数据库实体模型
// 本文件定义私聊消息模型
package model

import "time"

// Message 私聊消息
// 对应数据库 message 表
// Id 由存储层自增分配，同一存储内严格递增
type Message struct {
	Id        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SendId    string    `gorm:"column:send_id;type:varchar(32);not null;index:idx_message_pair_time,priority:1;comment:发送者uuid" json:"send_id"`
	ReceiveId string    `gorm:"column:receive_id;type:varchar(32);not null;index:idx_message_pair_time,priority:2;index:idx_message_receive_read,priority:1;comment:接收者uuid" json:"receive_id"`
	Content   string    `gorm:"column:content;type:TEXT;comment:消息内容" json:"content"`
	Read      bool      `gorm:"column:is_read;not null;default:false;index:idx_message_receive_read,priority:2;comment:接收方是否已读" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_message_pair_time,priority:3" json:"created_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

package model

import "time"

// ConnectionStatus 连接状态
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection 两个用户之间的连接记录
// 对应数据库 connection 表，(low_id, high_id) 唯一
// 删除时直接物理删除，不保留软删除记录
type Connection struct {
	ID          uint             `gorm:"primaryKey" json:"-"`
	LowId       string           `gorm:"column:low_id;type:varchar(32);not null;uniqueIndex:idx_connection_pair,priority:1;comment:较小的用户id" json:"low_id"`
	HighId      string           `gorm:"column:high_id;type:varchar(32);not null;uniqueIndex:idx_connection_pair,priority:2;index;comment:较大的用户id" json:"high_id"`
	Status      ConnectionStatus `gorm:"column:status;type:varchar(16);not null;comment:pending/accepted/rejected" json:"status"`
	RequesterId string           `gorm:"column:requester_id;type:varchar(32);not null;comment:发起人id" json:"requester_id"`
	CreatedAt   time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (Connection) TableName() string {
	return "connection"
}

// CanonicalPair 把无序的一对 id 规整为 (low, high)
func CanonicalPair(a, b string) (low, high string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Peer 返回连接中另一方的 id
func (c *Connection) Peer(self string) string {
	if c.LowId == self {
		return c.HighId
	}
	return c.LowId
}

// Involves 连接是否包含该用户
func (c *Connection) Involves(id string) bool {
	return c.LowId == id || c.HighId == id
}

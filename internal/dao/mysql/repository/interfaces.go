// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，MySQL 实现在各自的文件中
package repository

import (
	"campus_chat_server/internal/model"

	"gorm.io/gorm"
)

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByUuid 根据 UUID 查找用户
	FindByUuid(uuid string) (*model.UserInfo, error)
	// FindByUuids 批量根据 UUID 查找用户
	FindByUuids(uuids []string) ([]model.UserInfo, error)
	// Create 创建新用户
	Create(user *model.UserInfo) error
}

// ConnectionRepository 连接关系数据访问接口
// 所有方法的 low/high 均为规整后的一对 id
type ConnectionRepository interface {
	// Find 查找一对用户之间的连接，不存在返回 CodeNotFound
	Find(low, high string) (*model.Connection, error)
	// Create 创建连接，已存在返回 CodeDuplicateConnection
	Create(conn *model.Connection) error
	// Respond 仅当状态为 pending 且响应方不是发起人时更新状态
	// 条件不满足返回 CodeInvalidTransition
	Respond(low, high, responder string, status model.ConnectionStatus) error
	// DeleteAccepted 物理删除已接受的连接，不存在返回 CodeNotFound
	DeleteAccepted(low, high string) error
	// ListByUser 查找涉及该用户的所有连接
	ListByUser(userId string) ([]model.Connection, error)
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 创建消息，成功后 message.Id 被回填
	Create(message *model.Message) error
	// FindByUserIds 查找两人之间的全部消息（按 id 升序）
	FindByUserIds(userOneId, userTwoId string) ([]model.Message, error)
	// ExistsFrom 是否存在 sendId -> receiveId 的消息
	ExistsFrom(sendId, receiveId string) (bool, error)
	// MarkRead 将 sendId -> receiveId 的未读消息标记为已读，返回影响条数
	MarkRead(sendId, receiveId string) (int64, error)
	// CountUnread 统计 receiveId 收到的未读消息，按发送者分组
	CountUnread(receiveId string) (map[string]int64, error)
	// CountUnreadFrom 统计 sendId -> receiveId 的未读消息数
	CountUnreadFrom(sendId, receiveId string) (int64, error)
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db         *gorm.DB             // GORM 数据库实例，内存实现时为 nil
	User       UserRepository       // 用户 Repository
	Connection ConnectionRepository // 连接 Repository
	Message    MessageRepository    // 消息 Repository
}

// NewRepositories 创建所有 MySQL Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:         db,
		User:       NewUserRepository(db),
		Connection: NewConnectionRepository(db),
		Message:    NewMessageRepository(db),
	}
}

// Compose 用任意实现组装 Repositories（内存存储与测试使用）
func Compose(user UserRepository, conn ConnectionRepository, msg MessageRepository) *Repositories {
	return &Repositories{
		User:       user,
		Connection: conn,
		Message:    msg,
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
// 非 MySQL 实现没有事务，直接执行
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

package repository

import (
	"errors"

	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository 创建连接 Repository
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

// Find 按规整后的一对 id 查找连接
func (r *connectionRepository) Find(low, high string) (*model.Connection, error) {
	var conn model.Connection
	if err := r.db.First(&conn, "low_id = ? AND high_id = ?", low, high).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询连接 %s-%s", low, high)
	}
	return &conn, nil
}

// Create 创建连接
// 依赖 (low_id, high_id) 唯一索引，需要在 gorm.Config 中开启 TranslateError
func (r *connectionRepository) Create(conn *model.Connection) error {
	if err := r.db.Create(conn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorx.Wrapf(err, errorx.CodeDuplicateConnection, "%s 与 %s 之间已存在连接", conn.LowId, conn.HighId)
		}
		return wrapDBError(err, "创建连接")
	}
	return nil
}

// Respond 条件更新：只改 pending 且发起人不是响应方的记录
func (r *connectionRepository) Respond(low, high, responder string, status model.ConnectionStatus) error {
	res := r.db.Model(&model.Connection{}).
		Where("low_id = ? AND high_id = ? AND status = ? AND requester_id <> ?",
			low, high, model.ConnectionPending, responder).
		Update("status", status)
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "更新连接 %s-%s", low, high)
	}
	if res.RowsAffected == 0 {
		return errorx.Newf(errorx.CodeInvalidTransition, "连接 %s-%s 当前不可由 %s 处理", low, high, responder)
	}
	return nil
}

// DeleteAccepted 物理删除已接受的连接
func (r *connectionRepository) DeleteAccepted(low, high string) error {
	res := r.db.Unscoped().
		Where("low_id = ? AND high_id = ? AND status = ?", low, high, model.ConnectionAccepted).
		Delete(&model.Connection{})
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "删除连接 %s-%s", low, high)
	}
	if res.RowsAffected == 0 {
		return errorx.Newf(errorx.CodeNotFound, "%s 与 %s 之间没有已接受的连接", low, high)
	}
	return nil
}

// ListByUser 查找涉及该用户的所有连接
func (r *connectionRepository) ListByUser(userId string) ([]model.Connection, error) {
	var conns []model.Connection
	if err := r.db.Where("low_id = ? OR high_id = ?", userId, userId).
		Order("updated_at DESC").Find(&conns).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询连接列表 user=%s", userId)
	}
	return conns, nil
}

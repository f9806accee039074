package repository

import (
	"campus_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息，自增 id 回填到 message.Id
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByUserIds 按发送者和接收者查找消息（双向）
func (r *messageRepository) FindByUserIds(userOneId, userTwoId string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("(send_id = ? AND receive_id = ?) OR (send_id = ? AND receive_id = ?)",
		userOneId, userTwoId, userTwoId, userOneId).Order("id ASC").Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 user1=%s user2=%s", userOneId, userTwoId)
	}
	return messages, nil
}

// ExistsFrom 是否存在 sendId -> receiveId 的消息
func (r *messageRepository) ExistsFrom(sendId, receiveId string) (bool, error) {
	var ids []uint64
	if err := r.db.Model(&model.Message{}).
		Where("send_id = ? AND receive_id = ?", sendId, receiveId).
		Limit(1).Pluck("id", &ids).Error; err != nil {
		return false, wrapDBErrorf(err, "查询消息历史 %s->%s", sendId, receiveId)
	}
	return len(ids) > 0, nil
}

// MarkRead 将 sendId -> receiveId 的未读消息标记为已读
func (r *messageRepository) MarkRead(sendId, receiveId string) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("send_id = ? AND receive_id = ? AND is_read = ?", sendId, receiveId, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "标记已读 %s->%s", sendId, receiveId)
	}
	return res.RowsAffected, nil
}

// CountUnread 统计 receiveId 的未读消息数，按发送者分组
func (r *messageRepository) CountUnread(receiveId string) (map[string]int64, error) {
	var rows []struct {
		SendId string
		Total  int64
	}
	if err := r.db.Model(&model.Message{}).
		Select("send_id, COUNT(*) AS total").
		Where("receive_id = ? AND is_read = ?", receiveId, false).
		Group("send_id").Scan(&rows).Error; err != nil {
		return nil, wrapDBErrorf(err, "统计未读 receive_id=%s", receiveId)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.SendId] = row.Total
	}
	return counts, nil
}

// CountUnreadFrom 统计单个发送者发给 receiveId 的未读消息数
func (r *messageRepository) CountUnreadFrom(sendId, receiveId string) (int64, error) {
	var total int64
	if err := r.db.Model(&model.Message{}).
		Where("send_id = ? AND receive_id = ? AND is_read = ?", sendId, receiveId, false).
		Count(&total).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计未读 %s->%s", sendId, receiveId)
	}
	return total, nil
}

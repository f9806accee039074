package message

import (
	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// messageService 消息业务逻辑实现
type messageService struct {
	repos *repository.Repositories
}

// NewMessageService 构造函数
func NewMessageService(repos *repository.Repositories) *messageService {
	return &messageService{repos: repos}
}

// GetMessageList 获取两人之间的全部聊天记录，按 id 升序
// 历史记录直接读存储，不做缓存
func (m *messageService) GetMessageList(viewer, peer string) ([]respond.MessageRespond, error) {
	if viewer == "" || peer == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "用户id不能为空")
	}
	messageList, err := m.repos.Message.FindByUserIds(viewer, peer)
	if err != nil {
		zap.L().Error("find messages by user ids error", zap.String("viewer", viewer), zap.String("peer", peer), zap.Error(err))
		return nil, err
	}

	rspList := make([]respond.MessageRespond, 0, len(messageList))
	for i := range messageList {
		rspList = append(rspList, respond.NewMessageRespond(&messageList[i]))
	}
	return rspList, nil
}

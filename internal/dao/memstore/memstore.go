// Package memstore 提供 Repository 接口的进程内实现
// 用于 storage.mode = "memory" 的本地运行以及单元测试
// 语义与 MySQL 实现保持一致：唯一约束、条件更新、物理删除、自增 id
package memstore

import (
	"sort"
	"sync"
	"time"

	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/errorx"
)

// Store 内存数据源
type Store struct {
	mu          sync.RWMutex
	users       map[string]*model.UserInfo
	connections map[string]*model.Connection // key: low|high
	messages    []model.Message
	nextUserID  uint
	nextConnID  uint
	nextMsgID   uint64
	now         func() time.Time
}

// New 创建空的内存数据源
func New() *Store {
	return &Store{
		users:       make(map[string]*model.UserInfo),
		connections: make(map[string]*model.Connection),
		now:         time.Now,
	}
}

// Repositories 返回基于该数据源的 Repository 聚合
func (s *Store) Repositories() *repository.Repositories {
	return repository.Compose(userRepo{s}, connectionRepo{s}, messageRepo{s})
}

func pairKey(low, high string) string {
	return low + "|" + high
}

// ==================== 用户 ====================

type userRepo struct{ s *Store }

func (r userRepo) FindByUuid(uuid string) (*model.UserInfo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[uuid]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "查询用户 uuid=%s: record not found", uuid)
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) FindByUuids(uuids []string) ([]model.UserInfo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.UserInfo
	for _, id := range uuids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r userRepo) Create(user *model.UserInfo) error {
	if err := user.HashPassword(); err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "密码加密失败")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Uuid]; ok {
		return errorx.Newf(errorx.CodeUserExist, "用户 %s 已存在", user.Uuid)
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.s.users[user.Uuid] = &cp
	return nil
}

// ==================== 连接 ====================

type connectionRepo struct{ s *Store }

func (r connectionRepo) Find(low, high string) (*model.Connection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.connections[pairKey(low, high)]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "查询连接 %s-%s: record not found", low, high)
	}
	cp := *c
	return &cp, nil
}

func (r connectionRepo) Create(conn *model.Connection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey(conn.LowId, conn.HighId)
	if _, ok := r.s.connections[key]; ok {
		return errorx.Newf(errorx.CodeDuplicateConnection, "%s 与 %s 之间已存在连接", conn.LowId, conn.HighId)
	}
	r.s.nextConnID++
	conn.ID = r.s.nextConnID
	now := r.s.now()
	conn.CreatedAt, conn.UpdatedAt = now, now
	cp := *conn
	r.s.connections[key] = &cp
	return nil
}

func (r connectionRepo) Respond(low, high, responder string, status model.ConnectionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.connections[pairKey(low, high)]
	if !ok || c.Status != model.ConnectionPending || c.RequesterId == responder {
		return errorx.Newf(errorx.CodeInvalidTransition, "连接 %s-%s 当前不可由 %s 处理", low, high, responder)
	}
	c.Status = status
	c.UpdatedAt = r.s.now()
	return nil
}

func (r connectionRepo) DeleteAccepted(low, high string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey(low, high)
	c, ok := r.s.connections[key]
	if !ok || c.Status != model.ConnectionAccepted {
		return errorx.Newf(errorx.CodeNotFound, "%s 与 %s 之间没有已接受的连接", low, high)
	}
	delete(r.s.connections, key)
	return nil
}

func (r connectionRepo) ListByUser(userId string) ([]model.Connection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Connection
	for _, c := range r.s.connections {
		if c.Involves(userId) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// ==================== 消息 ====================

type messageRepo struct{ s *Store }

func (r messageRepo) Create(message *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextMsgID++
	message.Id = r.s.nextMsgID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = r.s.now()
	}
	r.s.messages = append(r.s.messages, *message)
	return nil
}

func (r messageRepo) FindByUserIds(userOneId, userTwoId string) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Message
	for _, m := range r.s.messages {
		if (m.SendId == userOneId && m.ReceiveId == userTwoId) ||
			(m.SendId == userTwoId && m.ReceiveId == userOneId) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r messageRepo) ExistsFrom(sendId, receiveId string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.messages {
		if m.SendId == sendId && m.ReceiveId == receiveId {
			return true, nil
		}
	}
	return false, nil
}

func (r messageRepo) MarkRead(sendId, receiveId string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.messages {
		m := &r.s.messages[i]
		if m.SendId == sendId && m.ReceiveId == receiveId && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r messageRepo) CountUnreadFrom(sendId, receiveId string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, m := range r.s.messages {
		if m.SendId == sendId && m.ReceiveId == receiveId && !m.Read {
			n++
		}
	}
	return n, nil
}

func (r messageRepo) CountUnread(receiveId string) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, m := range r.s.messages {
		if m.ReceiveId == receiveId && !m.Read {
			counts[m.SendId]++
		}
	}
	return counts, nil
}

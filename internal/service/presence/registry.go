// Package presence 维护在线会话表
// 一个用户可以同时有多个会话（多设备、多标签页），每个会话用 handle 唯一标识
// 同一用户的注册与注销串行执行，不同用户之间互不阻塞
package presence

import (
	"sync"
	"time"

	"campus_chat_server/internal/infrastructure/metrics"
	"campus_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Event 推送给会话的事件
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Sink 会话的下行通道，由传输层实现
// Deliver 不能阻塞，缓冲区满时直接返回错误
type Sink interface {
	Deliver(evt Event) error
}

// Session 一个在线会话
type Session struct {
	PrincipalID string
	Handle      string
	ConnectedAt time.Time
	sink        Sink
}

// Deliver 向该会话推送事件
func (s *Session) Deliver(evt Event) error {
	return s.sink.Deliver(evt)
}

// userSessions 某个用户的全部会话
// dead 为 true 表示已从表中摘除，后来者需要重新创建
type userSessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	dead     bool
}

// Registry 在线会话注册表
type Registry struct {
	users   sync.Map // principalID -> *userSessions
	handles sync.Map // handle -> principalID
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRegistry 创建注册表，m 可以为 nil
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{metrics: m, now: time.Now}
}

// Register 把会话绑定到用户
func (r *Registry) Register(principalID, handle string, sink Sink) (*Session, error) {
	if principalID == "" || handle == "" || sink == nil {
		return nil, errorx.New(errorx.CodeInvalidParam, "会话参数不完整")
	}
	if _, loaded := r.handles.LoadOrStore(handle, principalID); loaded {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "会话 %s 已注册", handle)
	}

	sess := &Session{
		PrincipalID: principalID,
		Handle:      handle,
		ConnectedAt: r.now(),
		sink:        sink,
	}
	for {
		v, _ := r.users.LoadOrStore(principalID, &userSessions{sessions: make(map[string]*Session)})
		us := v.(*userSessions)
		us.mu.Lock()
		if us.dead {
			// 刚被最后一个会话注销摘除，重新取一次
			us.mu.Unlock()
			continue
		}
		us.sessions[handle] = sess
		us.mu.Unlock()
		break
	}

	r.metrics.IncSession()
	zap.L().Debug("session registered", zap.String("user_id", principalID), zap.String("handle", handle))
	return sess, nil
}

// Unregister 只移除该 handle，同一用户的其他会话不受影响
// 返回该 handle 之前是否存在
func (r *Registry) Unregister(handle string) bool {
	v, ok := r.handles.LoadAndDelete(handle)
	if !ok {
		return false
	}
	principalID := v.(string)

	uv, ok := r.users.Load(principalID)
	if !ok {
		return false
	}
	us := uv.(*userSessions)
	us.mu.Lock()
	_, existed := us.sessions[handle]
	delete(us.sessions, handle)
	if len(us.sessions) == 0 && !us.dead {
		us.dead = true
		r.users.CompareAndDelete(principalID, us)
	}
	us.mu.Unlock()

	if existed {
		r.metrics.DecSession()
		zap.L().Debug("session unregistered", zap.String("user_id", principalID), zap.String("handle", handle))
	}
	return existed
}

// LiveSessions 返回用户当前全部会话的快照
func (r *Registry) LiveSessions(principalID string) []*Session {
	v, ok := r.users.Load(principalID)
	if !ok {
		return nil
	}
	us := v.(*userSessions)
	us.mu.Lock()
	defer us.mu.Unlock()
	out := make([]*Session, 0, len(us.sessions))
	for _, s := range us.sessions {
		out = append(out, s)
	}
	return out
}

// Lookup 根据 handle 查找会话
func (r *Registry) Lookup(handle string) (*Session, bool) {
	v, ok := r.handles.Load(handle)
	if !ok {
		return nil, false
	}
	for _, s := range r.LiveSessions(v.(string)) {
		if s.Handle == handle {
			return s, true
		}
	}
	return nil, false
}

// Online 用户是否至少有一个在线会话
func (r *Registry) Online(principalID string) bool {
	return len(r.LiveSessions(principalID)) > 0
}

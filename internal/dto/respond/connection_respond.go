package respond

import (
	"time"

	"campus_chat_server/internal/model"
)

// ConnectionRespond 以某个用户视角描述的一条连接
// 使用位置:
//   - internal/service/connection/service.go: ListConnections
//   - internal/handler/connection_handler.go
type ConnectionRespond struct {
	PeerId      string    `json:"peer_id"`
	Status      string    `json:"status"`
	RequesterId string    `json:"requester_id"`
	Incoming    bool      `json:"incoming"` // 对方发起且待我处理
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewConnectionRespond self 为查看者
func NewConnectionRespond(c *model.Connection, self string) ConnectionRespond {
	return ConnectionRespond{
		PeerId:      c.Peer(self),
		Status:      string(c.Status),
		RequesterId: c.RequesterId,
		Incoming:    c.Status == model.ConnectionPending && c.RequesterId != self,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

package request

import "encoding/json"

// Frame 实时通道上的一帧，data 按 event 再次解析
// 使用位置:
//   - internal/gateway/websocket/client.go: readPump
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// LoginEventRequest login 事件
type LoginEventRequest struct {
	UserId string `json:"userId"`
}

// ChatMessageRequest private message 事件
// 使用位置:
//   - internal/gateway/websocket/client.go: handlePrivateMessage
type ChatMessageRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}

// ConversationOpenedRequest conversation opened 事件
type ConversationOpenedRequest struct {
	PeerId string `json:"peerId"`
}

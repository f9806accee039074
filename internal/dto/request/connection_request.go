package request

// RespondConnectionRequest 响应连接申请
// 使用位置:
//   - internal/handler/connection_handler.go: RespondConnection
type RespondConnectionRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

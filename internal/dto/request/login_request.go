package request

// LoginRequest 用户 id + 密码登录请求
// 使用位置:
//   - internal/handler/auth_handler.go: Login
//   - internal/service/auth/service.go: Login
type LoginRequest struct {
	UserId   string `json:"user_id" binding:"required,principal_id"`
	Password string `json:"password" binding:"required,min=6"`
}

// RefreshTokenRequest 刷新访问令牌请求
// 使用位置:
//   - internal/handler/auth_handler.go: RefreshToken
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

package respond

// LoginRespond 登录响应
// 使用位置:
//   - internal/service/auth/service.go: Login
type LoginRespond struct {
	UserId       string `json:"user_id"`
	Nickname     string `json:"nickname"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenRespond 刷新令牌响应
type RefreshTokenRespond struct {
	AccessToken string `json:"access_token"`
}

// UserRespond 账号信息
// 使用位置:
//   - internal/service/auth/service.go: Provision
type UserRespond struct {
	UserId    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Role      string `json:"role"`
	Telephone string `json:"telephone,omitempty"`
	Email     string `json:"email,omitempty"`
}

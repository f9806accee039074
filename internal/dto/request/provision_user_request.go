package request

// ProvisionUserRequest 管理员开通账号
// 使用位置:
//   - internal/handler/admin_handler.go: ProvisionUser
type ProvisionUserRequest struct {
	UserId    string `json:"user_id" binding:"required,principal_id"`
	Nickname  string `json:"nickname" binding:"required,max=32"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"required,oneof=student faculty alumni admin"`
	Telephone string `json:"telephone" binding:"omitempty,len=11,numeric"`
	Email     string `json:"email" binding:"omitempty,email"`
}

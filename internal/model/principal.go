// Package model 定义数据库实体模型和核心领域类型
package model

// Role 用户角色
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAlumni  Role = "alumni"
	RoleAdmin   Role = "admin"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAlumni, RoleAdmin:
		return true
	}
	return false
}

// Principal 已认证的操作者，由 id 和角色组成
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

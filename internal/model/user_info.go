// Package model 定义数据库实体模型
// 本文件定义用户信息模型，包含用户基本资料和认证信息
package model

import (
	"golang.org/x/crypto/bcrypt" // 密码哈希库
	"gorm.io/gorm"
)

// UserInfo 用户信息模型
// 对应数据库 user_info 表
type UserInfo struct {
	gorm.Model // 内嵌 GORM 模型，包含 ID、CreatedAt、UpdatedAt、DeletedAt

	// Uuid 用户唯一标识
	Uuid string `gorm:"column:uuid;uniqueIndex;type:varchar(32);comment:用户唯一id"`

	// Nickname 用户昵称
	Nickname string `gorm:"column:nickname;type:varchar(32);not null;comment:昵称"`

	// Telephone 手机号码
	Telephone string `gorm:"column:telephone;index;type:char(11);comment:电话"`

	// Email 邮箱地址（可选）
	Email string `gorm:"column:email;type:varchar(64);comment:邮箱"`

	// Password bcrypt 哈希后的密码
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码"`

	// Role 角色：student / faculty / alumni / admin
	Role Role `gorm:"column:role;type:varchar(16);index;not null;comment:角色"`

	// Status 账号状态
	// 0=正常, 1=禁用
	Status int8 `gorm:"column:status;index;not null;comment:状态，0.正常，1.禁用"`

	// RawPassword 明文密码（不存入数据库），在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave GORM Hook：在创建和更新前将 RawPassword 加密后存入 Password
func (u *UserInfo) BeforeSave(tx *gorm.DB) (err error) {
	return u.HashPassword()
}

// HashPassword 如果设置了明文密码则加密并清空明文
// 内存存储没有 GORM Hook，需要显式调用
func (u *UserInfo) HashPassword() error {
	if u.RawPassword == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	u.RawPassword = ""
	return nil
}

// CheckPassword 校验密码是否正确
func (u *UserInfo) CheckPassword(plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext))
	return err == nil
}

// Principal 转换为领域身份
func (u *UserInfo) Principal() Principal {
	return Principal{ID: u.Uuid, Role: u.Role}
}

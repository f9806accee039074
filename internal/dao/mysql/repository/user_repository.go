package repository

import (
	"errors"

	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 按 UUID 查找用户
func (r *userRepository) FindByUuid(uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByUuids 按 UUID 列表查找用户
func (r *userRepository) FindByUuids(uuids []string) ([]model.UserInfo, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	var users []model.UserInfo
	if err := r.db.Where("uuid IN ?", uuids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorx.Wrapf(err, errorx.CodeUserExist, "用户 %s 已存在", user.Uuid)
		}
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// Package auth 提供认证相关的业务逻辑
// 处理登录、Token 刷新、账号开通等功能
package auth

import (
	"context"
	"time"

	"campus_chat_server/internal/dao/mysql/repository"
	myredis "campus_chat_server/internal/dao/redis"
	"campus_chat_server/internal/dto/request"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/constants"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
)

// Service 认证服务实现
type Service struct {
	repos         *repository.Repositories
	cache         myredis.CacheService // 缓存服务（依赖倒置）
	refreshExpiry time.Duration
}

// NewAuthService 创建认证服务实例
// refreshExpiryHours <= 0 时使用默认 7 天
func NewAuthService(repos *repository.Repositories, cache myredis.CacheService, refreshExpiryHours int) *Service {
	if refreshExpiryHours <= 0 {
		refreshExpiryHours = constants.REFRESH_TOKEN_EXPIRY_HOURS
	}
	return &Service{
		repos:         repos,
		cache:         cache,
		refreshExpiry: time.Duration(refreshExpiryHours) * time.Hour,
	}
}

// tokenKey 每个 Refresh Token 一条记录，多设备同时登录互不影响
func tokenKey(userID, tokenID string) string {
	return constants.UserTokenPrefix + userID + ":" + tokenID
}

// Login 用户 id + 密码登录，签发双 Token
func (s *Service) Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := s.repos.User.FindByUuid(req.UserId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		zap.L().Error(err.Error())
		return nil, errorx.ErrServerBusy
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码不正确，请重试")
	}
	if user.Status != 0 {
		return nil, errorx.New(errorx.CodeUnauthorized, "账号已被禁用")
	}

	role := string(user.Role)
	accessToken, err := jwt.GenerateAccessToken(user.Uuid, role)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	refreshToken, tokenID, err := jwt.GenerateRefreshToken(user.Uuid, role)
	if err != nil {
		zap.L().Error("生成 Refresh Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	// Refresh Token ID 写入缓存，刷新时校验，登出时删除
	if err := s.cache.Set(ctx, tokenKey(user.Uuid, tokenID), "1", s.refreshExpiry); err != nil {
		zap.L().Error("存储 Token ID 失败", zap.Error(err))
		return nil, err
	}

	zap.L().Info("user login", zap.String("user_id", user.Uuid), zap.String("role", role))
	return &respond.LoginRespond{
		UserId:       user.Uuid,
		Nickname:     user.Nickname,
		Role:         role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh 用 Refresh Token 换新的 Access Token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*respond.RefreshTokenRespond, error) {
	// 1. 解析 Refresh Token
	claims, err := jwt.ParseToken(refreshToken)
	if err != nil {
		return nil, errorx.New(errorx.CodeUnauthorized, "Refresh Token 已过期或无效，请重新登录")
	}
	// 2. 防止使用 Access Token 刷新
	if claims.Subject != jwt.SubjectRefresh || claims.TokenID == "" {
		return nil, errorx.New(errorx.CodeUnauthorized, "请使用 Refresh Token")
	}
	// 3. Token ID 必须仍然有效
	ok, err := s.ValidateTokenID(ctx, claims.UserID, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorx.New(errorx.CodeUnauthorized, "登录状态已失效，请重新登录")
	}
	// 4. 角色以存储为准，避免沿用旧角色
	user, err := s.repos.User.FindByUuid(claims.UserID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUnauthorized, "用户不存在")
		}
		return nil, errorx.ErrServerBusy
	}
	accessToken, err := jwt.GenerateAccessToken(user.Uuid, string(user.Role))
	if err != nil {
		return nil, errorx.ErrServerBusy
	}
	return &respond.RefreshTokenRespond{AccessToken: accessToken}, nil
}

// ValidateTokenID 验证用户的 Token ID 是否有效
func (s *Service) ValidateTokenID(ctx context.Context, userID, tokenID string) (bool, error) {
	v, err := s.cache.Get(ctx, tokenKey(userID, tokenID))
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// Logout 作废该 Refresh Token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := jwt.ParseToken(refreshToken)
	if err != nil || claims.Subject != jwt.SubjectRefresh {
		return errorx.New(errorx.CodeUnauthorized, "Refresh Token 无效")
	}
	return s.cache.Delete(ctx, tokenKey(claims.UserID, claims.TokenID))
}

// Provision 开通账号，用户资料由外部系统维护，这里只保存认证所需字段
func (s *Service) Provision(req request.ProvisionUserRequest) (*respond.UserRespond, error) {
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "未知角色 %q", req.Role)
	}
	user := &model.UserInfo{
		Uuid:        req.UserId,
		Nickname:    req.Nickname,
		Telephone:   req.Telephone,
		Email:       req.Email,
		Role:        role,
		RawPassword: req.Password,
	}
	if err := s.repos.User.Create(user); err != nil {
		return nil, err
	}
	zap.L().Info("user provisioned", zap.String("user_id", user.Uuid), zap.String("role", req.Role))
	return &respond.UserRespond{
		UserId:    user.Uuid,
		Nickname:  user.Nickname,
		Role:      string(user.Role),
		Telephone: user.Telephone,
		Email:     user.Email,
	}, nil
}

// EnsureAdmin 启动时保证管理员账号存在
func (s *Service) EnsureAdmin(userID, password string) error {
	if userID == "" || password == "" {
		return nil
	}
	_, err := s.repos.User.FindByUuid(userID)
	if err == nil {
		return nil
	}
	if !errorx.IsNotFound(err) {
		return err
	}
	_, err = s.Provision(request.ProvisionUserRequest{
		UserId:   userID,
		Nickname: userID,
		Password: password,
		Role:     string(model.RoleAdmin),
	})
	return err
}

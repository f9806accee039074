// Package handler 提供 HTTP 请求处理器
// 本文件处理认证相关的 API 请求
package handler

import (
	"campus_chat_server/internal/dto/request"
	"campus_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 构造函数
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 用户 id + 密码登录
// POST /login
// 请求体: request.LoginRequest
// 响应: respond.LoginRespond (用户信息 + JWT Token)
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// RefreshToken 刷新 Access Token
// POST /auth/refresh
// 请求体: request.RefreshTokenRequest
// 响应: { access_token: string }
//
// 每次登录的 Refresh Token 各自记录 Token ID，登出或过期后该 Token 失效
// 其他设备的登录不受影响
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Logout 作废当前设备的 Refresh Token
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

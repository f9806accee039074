package middleware

import (
	"net/http"
	"strings"

	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/constants"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"kind": errorx.KindUnauthorized,
		"msg":  msg,
	})
}

// bearerToken 优先取 Authorization 头，浏览器 WebSocket 无法设置头时使用 token 查询参数
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户信息存入上下文
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 获取 Token
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "请先登录，使用 Bearer Token")
			return
		}

		// 2. 验证 Token
		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}

		// 3. 验证是否为 Access Token
		if claims.Subject != jwt.SubjectAccess {
			abortUnauthorized(c, "请使用 Access Token 访问此接口")
			return
		}

		// 4. 将用户信息存入上下文，供后续 Handler 使用
		c.Set(constants.CtxUserID, claims.UserID)
		c.Set(constants.CtxRole, claims.Role)
		c.Next()
	}
}

// AdminOnly 必须挂在 JWTAuth 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(constants.CtxRole) != string(model.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": errorx.CodePermissionDenied,
				"kind": errorx.KindPermissionDenied,
				"msg":  "需要管理员权限",
			})
			return
		}
		c.Next()
	}
}

// PrincipalFrom 取出 JWTAuth 存入的操作者
func PrincipalFrom(c *gin.Context) model.Principal {
	return model.Principal{
		ID:   c.GetString(constants.CtxUserID),
		Role: model.Role(c.GetString(constants.CtxRole)),
	}
}

package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// TlsHandler 把 HTTP 请求重定向到 HTTPS，mainConfig.tls 开启时挂载
// isDev 为 true 时 secure 不做任何处理，便于本地调试
func TlsHandler(host string, port int, isDev bool) gin.HandlerFunc {
	// 1. 只创建一次
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:          true,
		SSLHost:              host + ":" + strconv.Itoa(port),
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		IsDevelopment:        isDev,
	})

	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			// 2. 只记录日志并终止当前请求
			zap.L().Error("TLS redirection failed", zap.Error(err))
			c.Abort()
			return
		}

		// 3. 重定向时 secure 已写出响应
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}

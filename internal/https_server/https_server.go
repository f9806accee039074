// Package https_server 创建 Gin 引擎并配置中间件和路由
package https_server

import (
	"campus_chat_server/internal/config"
	"campus_chat_server/internal/handler"
	"campus_chat_server/internal/infrastructure/logger"
	"campus_chat_server/internal/infrastructure/middleware"
	"campus_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Init 初始化 HTTP/HTTPS 服务器并返回 Gin 引擎实例
// gatherer 为 nil 时不暴露指标接口
// 配置顺序：
//  1. 创建 Gin 引擎（空白，不含默认中间件）
//  2. 注册日志和恢复中间件
//  3. 配置 CORS 跨域规则
//  4. 按需挂载 TLS 重定向
//  5. 注册指标和业务路由
func Init(cfg *config.Config, handlers *handler.Handlers, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.MainConfig.Mode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终止 TLS 时保持关闭
	if cfg.MainConfig.TLS {
		engine.Use(middleware.TlsHandler(cfg.MainConfig.Host, cfg.MainConfig.Port, cfg.MainConfig.Mode == "dev"))
	}

	if cfg.MetricsConfig.Enabled && gatherer != nil {
		engine.GET(cfg.MetricsConfig.Path, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus_chat_server/internal/config"
	"campus_chat_server/internal/dao/memstore"
	dao "campus_chat_server/internal/dao/mysql"
	"campus_chat_server/internal/dao/mysql/repository"
	myredis "campus_chat_server/internal/dao/redis"
	"campus_chat_server/internal/gateway/websocket"
	"campus_chat_server/internal/handler"
	"campus_chat_server/internal/https_server"
	"campus_chat_server/internal/infrastructure/logger"
	"campus_chat_server/internal/infrastructure/metrics"
	mq "campus_chat_server/internal/infrastructure/mq"
	"campus_chat_server/internal/service"
	"campus_chat_server/internal/service/chat"
	"campus_chat_server/pkg/constants"
	"campus_chat_server/pkg/util/jwt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，留空时按默认路径查找")
	flag.Parse()

	// 1. 加载配置
	var conf *config.Config
	if *configPath != "" {
		cfg, err := config.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
		config.SetConfig(cfg)
		conf = cfg
	} else {
		conf = config.GetConfig()
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer zap.L().Sync()
	zap.L().Info("日志初始化成功", zap.String("app", conf.AppName))

	// 3. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)

	// 4. 初始化存储，不可用时直接退出
	var (
		repos *repository.Repositories
		cache myredis.CacheService
	)
	switch conf.StorageConfig.Mode {
	case constants.StorageMemory:
		repos = memstore.New().Repositories()
		cache = memstore.NewCache()
		zap.L().Warn("使用内存存储，重启后数据丢失")
	default:
		var err error
		repos, err = dao.Init(&conf.MysqlConfig)
		if err != nil {
			zap.L().Fatal("数据库初始化失败", zap.Error(err))
		}
		zap.L().Info("数据库初始化成功")

		redisCache, err := myredis.Init(&conf.RedisConfig)
		if err != nil {
			zap.L().Fatal("Redis 初始化失败", zap.Error(err))
		}
		defer redisCache.Close()
		cache = redisCache
		zap.L().Info("Redis 初始化成功")
	}

	// 5. 指标
	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if conf.MetricsConfig.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. 初始化 Service 层，kafka 模式下用 KafkaRelay 包装本机投递
	var relay *mq.KafkaRelay
	deps := service.Deps{
		Repos:              repos,
		Cache:              cache,
		Metrics:            m,
		MaxContentLength:   conf.ChatConfig.MaxContentLength,
		RefreshExpiryHours: conf.JWTConfig.RefreshTokenExpiry,
	}
	if conf.KafkaConfig.MessageMode == constants.MessageModeKafka {
		if err := mq.CreateTopic(conf.KafkaConfig); err != nil {
			zap.L().Fatal("Kafka 不可用", zap.Error(err))
		}
		deps.NewDispatcher = func(local *chat.LocalDispatcher) chat.Dispatcher {
			relay = mq.NewKafkaRelay(conf.KafkaConfig, local)
			return relay
		}
	}
	svc := service.NewServices(deps)
	if relay != nil {
		go relay.Start(ctx)
		defer relay.Close()
		zap.L().Info("Kafka 投递已启用", zap.String("node_id", conf.KafkaConfig.NodeID))
	}
	zap.L().Info("Service 层初始化成功")

	// 7. 管理员账号
	if conf.AdminConfig.UserId != "" {
		if err := svc.Auth.EnsureAdmin(conf.AdminConfig.UserId, conf.AdminConfig.Password); err != nil {
			zap.L().Fatal("初始化管理员账号失败", zap.Error(err))
		}
	}

	// 8. 实时网关与 HTTP 服务
	gw := websocket.NewGateway(svc.Presence, svc.Router, svc.Unread, websocket.Options{
		SendBufferSize:   conf.ChatConfig.SendBufferSize,
		PingInterval:     time.Duration(conf.ChatConfig.PingInterval) * time.Second,
		MaxContentLength: conf.ChatConfig.MaxContentLength,
	})
	engine := https_server.Init(conf, handler.NewHandlers(svc, gw), gatherer)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 9. 等待信号后优雅关闭
	<-ctx.Done()
	zap.L().Info("关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown error", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
}

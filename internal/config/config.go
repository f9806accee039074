// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port"`    // 服务器监听端口，如 8000
	Mode    string `toml:"mode"`    // 运行模式：dev / release
	TLS     bool   `toml:"tls"`     // 是否开启 HTTPS 重定向
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig Kafka 消息队列配置
type KafkaConfig struct {
	MessageMode string `toml:"messageMode"` // 投递模式："channel" 单机 或 "kafka" 多节点
	HostPort    string `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	ChatTopic   string `toml:"chatTopic"`   // 投递事件主题
	Partition   int    `toml:"partition"`   // 分区数
	Timeout     int    `toml:"timeout"`     // 读写超时（秒）
	NodeID      string `toml:"nodeId"`      // 节点标识，每个节点使用独立的消费组
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret             string `toml:"secret"`             // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry  int    `toml:"accessTokenExpiry"`  // Access Token 有效期（分钟）
	RefreshTokenExpiry int    `toml:"refreshTokenExpiry"` // Refresh Token 有效期（小时）
}

// StorageConfig 持久化方式
type StorageConfig struct {
	Mode string `toml:"mode"` // "mysql" 或 "memory"
}

// ChatConfig 实时消息相关参数
type ChatConfig struct {
	MaxContentLength int `toml:"maxContentLength"` // 单条消息最大字符数
	SendBufferSize   int `toml:"sendBufferSize"`   // 每个会话的发送缓冲区
	PingInterval     int `toml:"pingInterval"`     // 心跳间隔（秒）
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// AdminConfig 启动时自动开通的管理员账号，留空则不创建
type AdminConfig struct {
	UserId   string `toml:"userId"`
	Password string `toml:"password"`
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig    `toml:"mainConfig"`    // 主配置
	MysqlConfig   `toml:"mysqlConfig"`   // MySQL 配置
	RedisConfig   `toml:"redisConfig"`   // Redis 配置
	LogConfig     `toml:"logConfig"`     // 日志配置
	KafkaConfig   `toml:"kafkaConfig"`   // Kafka 配置
	JWTConfig     `toml:"jwtConfig"`     // JWT 配置
	StorageConfig `toml:"storageConfig"` // 存储配置
	ChatConfig    `toml:"chatConfig"`    // 实时消息配置
	MetricsConfig `toml:"metricsConfig"` // 指标配置
	AdminConfig   `toml:"adminConfig"`   // 管理员账号
}

// config 全局配置单例，延迟加载
var (
	config *Config
	once   sync.Once
)

// searchPaths 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",       // 本地开发配置（优先）
	"configs/config.toml",             // 默认配置
	"../../configs/config_local.toml", // 从子目录运行时的路径
	"../../configs/config.toml",       // 从子目录运行时的路径
}

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() (*Config, error) {
	for _, path := range searchPaths {
		if cfg, err := LoadConfigFile(path); err == nil {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("could not find configuration file in any of the search paths")
}

// LoadConfigFile 加载指定路径的配置文件，并填充默认值
func LoadConfigFile(path string) (*Config, error) {
	cfg := new(Config)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// SetConfig 显式设置全局配置（命令行指定配置文件或测试时使用）
func SetConfig(cfg *Config) {
	once.Do(func() {})
	applyDefaults(cfg)
	config = cfg
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，找不到则全部使用默认值
func GetConfig() *Config {
	once.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			cfg = new(Config)
			applyDefaults(cfg)
		}
		config = cfg
	})
	return config
}

// Default 返回只包含默认值的配置
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)
	return cfg
}

// applyDefaults 为未填写的字段补默认值
func applyDefaults(c *Config) {
	if c.AppName == "" {
		c.AppName = "campus_chat_server"
	}
	if c.MainConfig.Host == "" {
		c.MainConfig.Host = "0.0.0.0"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.MainConfig.Mode == "" {
		c.MainConfig.Mode = "dev"
	}
	if c.MysqlConfig.Port == 0 {
		c.MysqlConfig.Port = 3306
	}
	if c.RedisConfig.Port == 0 {
		c.RedisConfig.Port = 6379
	}
	if c.LogPath == "" {
		c.LogPath = "./logs"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MessageMode == "" {
		c.MessageMode = "channel"
	}
	if c.ChatTopic == "" {
		c.ChatTopic = "campus_chat_delivery"
	}
	if c.Timeout == 0 {
		c.Timeout = 1
	}
	if c.NodeID == "" {
		c.NodeID = "node-1"
	}
	if c.AccessTokenExpiry == 0 {
		c.AccessTokenExpiry = 30
	}
	if c.RefreshTokenExpiry == 0 {
		c.RefreshTokenExpiry = 168
	}
	if c.StorageConfig.Mode == "" {
		c.StorageConfig.Mode = "mysql"
	}
	if c.MaxContentLength == 0 {
		c.MaxContentLength = 4000
	}
	if c.SendBufferSize == 0 {
		c.SendBufferSize = 100
	}
	if c.PingInterval == 0 {
		c.PingInterval = 30
	}
	if c.MetricsConfig.Path == "" {
		c.MetricsConfig.Path = "/metrics"
	}
}

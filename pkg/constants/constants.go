package constants

const (
	CHANNEL_SIZE               = 100  // 单个会话发送缓冲区默认大小
	MAX_CONTENT_LENGTH         = 4000 // 单条消息最大字符数
	REDIS_TIMEOUT              = 1    // redis timeout (分钟)
	REFRESH_TOKEN_EXPIRY_HOURS = 168  // Refresh Token 有效期（小时），168小时 = 7天
	PING_INTERVAL_SECONDS      = 30   // WebSocket 心跳间隔（秒）
)

// 上下文键
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Redis 键前缀
const (
	UnreadKeyPrefix  = "unread:"     // unread:<owner> -> hash{peer: count}
	UserTokenPrefix  = "user_token:" // user_token:<uid> -> refresh token id
	MessageModeKafka = "kafka"
	MessageModeLocal = "channel"
	StorageMySQL     = "mysql"
	StorageMemory    = "memory"
)

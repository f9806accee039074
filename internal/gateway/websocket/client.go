// Package websocket 实时通道
// 每条 WebSocket 连接对应一个会话，收到 login 事件后才登记到在线表
// 帧格式: {"event": "...", "data": {...}}
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"campus_chat_server/internal/dto/request"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/model"
	"campus_chat_server/internal/service/presence"
	"campus_chat_server/pkg/constants"
	"campus_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var (
	errBufferFull = errors.New("session send buffer full")
	errClosed     = errors.New("session closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 跨域由 cors 中间件处理，这里放行所有 Origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Options 网关参数
type Options struct {
	SendBufferSize   int
	PingInterval     time.Duration
	MaxContentLength int
}

// Gateway 管理所有实时连接
type Gateway struct {
	registry SessionRegistry
	sender   MessageSender
	opener   ConversationOpener
	opts     Options
}

// NewGateway 构造函数
func NewGateway(registry SessionRegistry, sender MessageSender, opener ConversationOpener, opts Options) *Gateway {
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = constants.CHANNEL_SIZE
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = constants.PING_INTERVAL_SECONDS * time.Second
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = constants.MAX_CONTENT_LENGTH
	}
	return &Gateway{registry: registry, sender: sender, opener: opener, opts: opts}
}

// Client 一条 WebSocket 连接
type Client struct {
	gw        *Gateway
	Conn      *websocket.Conn
	Handle    string
	principal model.Principal // 由 JWT 认证得到
	SendBack  chan []byte     // 给前端

	mu    sync.Mutex
	bound bool // 是否已通过 login 登记

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// ServeWS 升级连接并启动读写协程
func (g *Gateway) ServeWS(c *gin.Context, principal model.Principal) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("ws upgrade error", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		gw:        g,
		Conn:      conn,
		Handle:    uuid.NewString(),
		principal: principal,
		SendBack:  make(chan []byte, g.opts.SendBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	go client.Read()
	go client.Write()
	zap.L().Info("ws连接成功", zap.String("user_id", principal.ID), zap.String("handle", client.Handle))
}

// Deliver 实现 presence.Sink，不阻塞
func (c *Client) Deliver(evt presence.Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	select {
	case <-c.ctx.Done():
		return errClosed
	default:
	}
	select {
	case c.SendBack <- b:
		return nil
	default:
		return errBufferFull
	}
}

// Read 读取客户端事件，连接断开后注销会话
func (c *Client) Read() {
	defer c.close()

	pongWait := 2*c.gw.opts.PingInterval + writeWait
	// 单帧上限：内容按 4 字节一个字符估算，再留出信封空间
	c.Conn.SetReadLimit(int64(c.gw.opts.MaxContentLength)*4 + 1024)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read error", zap.String("handle", c.Handle), zap.Error(err))
			}
			return
		}
		c.handleFrame(data)
	}
}

// Write 把 SendBack 中的帧写给前端，并定时发送 ping
func (c *Client) Write() {
	ticker := time.NewTicker(c.gw.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case b := <-c.SendBack:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, b); err != nil {
				zap.L().Warn("ws write error", zap.String("handle", c.Handle), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// close 只执行一次：取消上下文、注销会话、关闭连接
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		bound := c.bound
		c.bound = false
		c.mu.Unlock()
		if bound {
			c.gw.registry.Unregister(c.Handle)
		}
		_ = c.Conn.Close()
		zap.L().Info("ws连接断开", zap.String("user_id", c.principal.ID), zap.String("handle", c.Handle))
	})
}

func (c *Client) handleFrame(data []byte) {
	var frame request.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.emitError("ValidationError: 无法解析的消息帧")
		return
	}
	switch frame.Event {
	case respond.EventLogin:
		c.handleLogin(frame.Data)
	case respond.EventPrivateMessage:
		c.handlePrivateMessage(frame.Data)
	case respond.EventConversationOpened:
		c.handleConversationOpened(frame.Data)
	default:
		c.emitError("ValidationError: 未知事件 " + frame.Event)
	}
}

// handleLogin login(userId) 必须与 Token 中的用户一致
func (c *Client) handleLogin(data json.RawMessage) {
	var req request.LoginEventRequest
	if err := json.Unmarshal(data, &req); err != nil || req.UserId == "" {
		c.emitError("ValidationError: login 缺少 userId")
		return
	}
	if req.UserId != c.principal.ID {
		zap.L().Warn("ws login principal mismatch",
			zap.String("token_user", c.principal.ID),
			zap.String("claimed_user", req.UserId))
		c.emitError("Unauthorized: 登录身份与 Token 不一致")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound {
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	if _, err := c.gw.registry.Register(c.principal.ID, c.Handle, c); err != nil {
		zap.L().Error("register session error", zap.String("handle", c.Handle), zap.Error(err))
		c.emitError("InternalError: 会话登记失败")
		return
	}
	c.bound = true
}

func (c *Client) isBound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bound
}

func (c *Client) handlePrivateMessage(data json.RawMessage) {
	if !c.isBound() {
		c.emitError("Unauthorized: 请先发送 login")
		return
	}
	var req request.ChatMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.emitError("ValidationError: private message 格式错误")
		return
	}
	if req.From != "" && req.From != c.principal.ID {
		c.emitError("Unauthorized: 发送方与登录身份不一致")
		return
	}
	// 失败时由路由向本会话推送 message error
	if _, err := c.gw.sender.Send(c.ctx, c.principal, req.To, req.Content, c.Handle); err != nil {
		zap.L().Info("private message rejected", zap.String("from", c.principal.ID), zap.String("to", req.To), zap.Error(err))
	}
}

func (c *Client) handleConversationOpened(data json.RawMessage) {
	if !c.isBound() {
		c.emitError("Unauthorized: 请先发送 login")
		return
	}
	var req request.ConversationOpenedRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PeerId == "" {
		c.emitError("ValidationError: conversation opened 缺少 peerId")
		return
	}
	if err := c.gw.opener.OnConversationOpened(c.ctx, c.principal.ID, req.PeerId); err != nil {
		c.emitError(errorx.Kind(err) + ": 未读状态更新失败")
	}
}

func (c *Client) emitError(msg string) {
	if err := c.Deliver(presence.Event{Name: respond.EventMessageError, Data: msg}); err != nil {
		zap.L().Warn("message error dropped", zap.String("handle", c.Handle), zap.Error(err))
	}
}

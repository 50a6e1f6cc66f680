package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/EthanQC/collab/internal/application"
	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/in"
	"github.com/EthanQC/collab/internal/ports/out"
	"github.com/EthanQC/collab/pkg/zlog"
)

const (
	// 写超时
	writeWait = 10 * time.Second
	// Pong等待时间
	pongWait = 60 * time.Second
	// Ping周期（必须小于pongWait）
	pingPeriod = 30 * time.Second
	// 最大消息大小
	maxMessageSize = 64 * 1024
	// 下行缓冲长度，写满说明客户端跟不上，直接判死
	sendBufferSize = 256
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Client 一条 WebSocket 客户端连接，实现 out.ClientConn
type Client struct {
	server       *Server
	conn         *websocket.Conn
	connectionID string
	userID       string
	projectID    string
	sessionID    string

	// ctx 挂着带连接标识字段的 logger，整个连接生命周期复用
	ctx context.Context

	send chan *entity.ServerMessage
	quit chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ out.ClientConn = (*Client)(nil)

func newClient(server *Server, conn *websocket.Conn, userID, projectID string) *Client {
	return &Client{
		server:    server,
		conn:      conn,
		userID:    userID,
		projectID: projectID,
		ctx:       context.Background(),
		send:      make(chan *entity.ServerMessage, sendBufferSize),
		quit:      make(chan struct{}),
	}
}

// Send 把下行消息入队，不阻塞
// 缓冲写满视为连接不可用，由上层剔除
func (c *Client) Send(msg *entity.ServerMessage) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errConnClosed
	}
	c.mu.Unlock()

	select {
	case c.send <- msg:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close 关闭连接，可重复调用
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.quit)
	return c.conn.Close()
}

// readPump 读取上行消息并分发
func (c *Client) readPump() {
	defer func() {
		c.server.usecase.Leave(c.ctx, c.connectionID)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				zlog.C(c.ctx).Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		c.dispatch(data)
	}
}

// writePump 把下行消息写到连接上，并维持心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// dispatch 按消息类型分发到用例层
// 格式错误回 error 给发送者本人，未知类型记日志后丢弃，连接都保持打开
func (c *Client) dispatch(data []byte) {
	ctx := c.ctx

	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch env.Type {
	case inCursorUpdate:
		var p cursorUpdatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError("invalid cursor_update payload")
			return
		}
		c.report(env.Type, c.server.usecase.UpdateCursor(ctx, c.connectionID, &in.CursorUpdateRequest{
			FileName:       p.FileName,
			Line:           p.Line,
			Column:         p.Column,
			SelectionStart: p.SelectionStart,
			SelectionEnd:   p.SelectionEnd,
		}))

	case inEditOperation:
		var p editOperationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError("invalid edit_operation payload")
			return
		}
		_, err := c.server.usecase.SubmitOperation(ctx, c.connectionID, &in.SubmitOperationRequest{
			FileName:    p.FileName,
			Type:        entity.OperationType(p.OperationType),
			Position:    entity.Position{Line: p.Position.Line, Column: p.Position.Column},
			Content:     p.Content,
			Length:      p.Length,
			VectorClock: p.VectorClock,
		})
		c.report(env.Type, err)

	case inFileChange:
		var p fileChangePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError("invalid file_change payload")
			return
		}
		c.report(env.Type, c.server.usecase.ApplyFileChange(ctx, c.connectionID, p.FileName, p.Content))

	case inPresenceUpdate:
		var p presenceUpdatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError("invalid presence_update payload")
			return
		}
		c.report(env.Type, c.server.usecase.UpdatePresence(ctx, c.connectionID, &in.PresenceUpdateRequest{
			Status:        entity.PresenceStatus(p.Status),
			CurrentFile:   p.CurrentFile,
			ViewportStart: p.ViewportStart,
			ViewportEnd:   p.ViewportEnd,
		}))

	case inFileLock:
		var p fileLockPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError("invalid file_lock payload")
			return
		}
		_, err := c.server.usecase.AcquireLock(ctx, c.connectionID, p.FileName, entity.LockType(p.LockType))
		c.report(env.Type, err)

	case inFileUnlock:
		var p fileUnlockPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError("invalid file_unlock payload")
			return
		}
		c.report(env.Type, c.server.usecase.ReleaseLock(ctx, c.connectionID, p.FileName))

	case inChatMessage:
		var p chatMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError("invalid chat_message payload")
			return
		}
		_, err := c.server.usecase.PostChat(ctx, c.connectionID, &in.PostChatRequest{
			Content:     p.Content,
			MessageType: entity.ChatMessageType(p.MessageType),
			FileName:    p.FileName,
			LineNumber:  p.LineNumber,
			ReplyTo:     p.ReplyTo,
			Mentions:    p.Mentions,
		})
		c.report(env.Type, err)

	case inPing:
		_ = c.Send(entity.NewServerMessage(entity.MsgPong, nil, c.userID, c.sessionID, time.Now()))

	default:
		zlog.C(c.ctx).Debug("unknown message type ignored", zap.String("type", env.Type))
	}
}

// report 统一处理用例层返回的错误
// 房间已不在属于正常竞态，静默返回；其余错误回给发送者本人
func (c *Client) report(msgType string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, application.ErrRoomNotFound) || errors.Is(err, application.ErrUnknownConnection) {
		return
	}
	zlog.C(c.ctx).Warn("message handling failed",
		zap.String("type", msgType),
		zap.Error(err))
	c.sendError(msgType + " failed: " + err.Error())
}

func (c *Client) sendError(message string) {
	_ = c.Send(entity.NewServerMessage(entity.MsgError,
		&entity.ErrorPayload{Message: message},
		c.userID, c.sessionID, time.Now()))
}

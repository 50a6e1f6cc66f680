package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/in"
)

// PostChat 发送聊天/批注消息
// 先落库再广播；广播发给全房间包括发送者，让所有客户端从同一份数据渲染
func (s *RoomService) PostChat(ctx context.Context, connectionID string, req *in.PostChatRequest) (*entity.ChatMessage, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent
	}
	msgType := req.MessageType
	if msgType == "" {
		msgType = entity.ChatMessageText
	}
	c, room := s.lookup(connectionID)
	if c == nil {
		return nil, ErrUnknownConnection
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	now := s.clock.Now()
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	room.chatSeq++

	// 用发送者当前的展示信息装饰消息
	username := c.UserID
	color := s.colors.ColorFor(c.UserID)
	if pres := room.presence[connectionID]; pres != nil {
		if pres.Username != "" {
			username = pres.Username
		}
		color = pres.Color
		pres.LastActiveAt = now
	}

	msg := &entity.ChatMessage{
		ID:          uuid.NewString(),
		SessionID:   room.sessionID,
		UserID:      c.UserID,
		Username:    username,
		Color:       color,
		Content:     req.Content,
		MessageType: msgType,
		FileName:    req.FileName,
		LineNumber:  req.LineNumber,
		ReplyTo:     req.ReplyTo,
		Mentions:    req.Mentions,
		Seq:         room.chatSeq,
		CreatedAt:   now,
	}
	room.touchLocked(now)
	room.mu.Unlock()

	// 先持久化，失败只记日志，不拦广播
	s.persist("chat.create", func() error { return s.repos.Chats.Create(ctx, msg) })

	room.mu.Lock()
	var dead []string
	if !room.closed {
		envelope := entity.NewServerMessage(entity.MsgChatMessage, msg, c.UserID, room.sessionID, now)
		dead = room.broadcastLocked(envelope)
	}
	room.mu.Unlock()

	s.dropDead(ctx, dead)
	return msg, nil
}

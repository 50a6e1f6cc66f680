package application

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/in"
)

// SubmitOperation 提交编辑操作
// 流程：盖服务端时间戳 -> 入该文件的操作缓冲 -> 按时间戳排序 ->
// 对时间戳不晚于自己且来源不同的操作逐个做位置变换 -> 广播变换结果给其他人 ->
// 原始和变换后两份一起落库
//
// 排序只认服务端到达时间，客户端带的 vector clock 只落库不参与排序，
// 这是沿用下来的 best-effort 策略，时钟回拨或高频并发下结果可能和客户端预期不同
func (s *RoomService) SubmitOperation(ctx context.Context, connectionID string, req *in.SubmitOperationRequest) (*entity.EditOperation, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidOperation
	}
	if req.FileName == "" {
		return nil, ErrMissingFileName
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

	op := &entity.EditOperation{
		ID:           uuid.NewString(),
		SessionID:    room.sessionID,
		ConnectionID: connectionID,
		UserID:       c.UserID,
		FileName:     req.FileName,
		Type:         req.Type,
		Position:     req.Position,
		Content:      req.Content,
		Length:       req.Length,
		VectorClock:  req.VectorClock,
		Timestamp:    now,
	}

	buf := append(room.opBuffer[req.FileName], op)
	sort.SliceStable(buf, func(i, j int) bool {
		return buf[i].Timestamp.Before(buf[j].Timestamp)
	})
	if overflow := len(buf) - s.cfg.OpBufferCap; overflow > 0 {
		buf = buf[overflow:]
	}
	room.opBuffer[req.FileName] = buf

	transformed := transformAgainst(op, buf)

	// 提交编辑视为正在编辑该文件
	var presCopy *entity.UserPresenceState
	if pres := room.presence[connectionID]; pres != nil {
		pres.Status = entity.PresenceStatusEditing
		pres.CurrentFile = req.FileName
		pres.LastActiveAt = now
		cp := *pres
		presCopy = &cp
	}
	room.touchLocked(now)

	msg := entity.NewServerMessage(entity.MsgEditOperation, transformed, c.UserID, room.sessionID, now)
	dead := room.broadcastLocked(msg, connectionID)
	room.mu.Unlock()

	s.persist("operation.create", func() error { return s.repos.Operations.Create(ctx, op, transformed) })
	if presCopy != nil {
		s.persist("presence.save", func() error { return s.repos.Presence.Save(ctx, presCopy) })
	}
	s.dropDead(ctx, dead)
	return transformed, nil
}

// transformAgainst 用缓冲里先到的并发操作修正新操作的位置
// 只处理同一行：前面的插入把列号右移插入长度，前面的删除把列号左移删除长度并在 0 截断；
// replace 原地替换不产生位移，跨行位移显式不处理
// 同一份缓冲和同一个新操作重放多少次结果都一样
func transformAgainst(op *entity.EditOperation, buf []*entity.EditOperation) *entity.EditOperation {
	transformed := op.Clone()
	for _, prev := range buf {
		if prev.ID == op.ID {
			continue
		}
		// 只有别的来源、且时间戳不晚于自己的操作才算"先到的并发操作"
		if prev.ConnectionID == op.ConnectionID || prev.Timestamp.After(op.Timestamp) {
			continue
		}
		if prev.Position.Line != transformed.Position.Line {
			continue
		}
		if prev.Position.Column > transformed.Position.Column {
			continue
		}
		switch prev.Type {
		case entity.OperationInsert:
			transformed.Position.Column += len(prev.Content)
		case entity.OperationDelete:
			transformed.Position.Column -= prev.Length
			if transformed.Position.Column < 0 {
				transformed.Position.Column = 0
			}
		}
	}
	return transformed
}

// ApplyFileChange 整文件内容替换
// 整体重写让该文件缓冲里的操作全部过期，直接清空，再把新内容广播给其他人
func (s *RoomService) ApplyFileChange(ctx context.Context, connectionID, fileName, content string) error {
	if fileName == "" {
		return ErrMissingFileName
	}
	c, room := s.lookup(connectionID)
	if c == nil {
		return ErrUnknownConnection
	}
	if room == nil {
		return ErrRoomNotFound
	}

	now := s.clock.Now()
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	delete(room.opBuffer, fileName)
	if pres := room.presence[connectionID]; pres != nil {
		pres.Status = entity.PresenceStatusEditing
		pres.CurrentFile = fileName
		pres.LastActiveAt = now
	}
	room.touchLocked(now)

	msg := entity.NewServerMessage(entity.MsgFileChange,
		&entity.FileChangePayload{FileName: fileName, Content: content, UserID: c.UserID},
		c.UserID, room.sessionID, now)
	dead := room.broadcastLocked(msg, connectionID)
	room.mu.Unlock()

	s.dropDead(ctx, dead)
	return nil
}

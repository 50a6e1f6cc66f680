package application

import (
	"context"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/in"
)

// UpdatePresence 更新在线状态：先改内存，再落库，再广播给其他人（从不回发给自己）
func (s *RoomService) UpdatePresence(ctx context.Context, connectionID string, req *in.PresenceUpdateRequest) error {
	if !req.Status.Valid() {
		return ErrInvalidStatus
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
	pres := room.presence[connectionID]
	if room.closed || pres == nil {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	pres.Status = req.Status
	pres.CurrentFile = req.CurrentFile
	pres.ViewportStart = req.ViewportStart
	pres.ViewportEnd = req.ViewportEnd
	pres.LastActiveAt = now
	cp := *pres
	room.touchLocked(now)

	msg := entity.NewServerMessage(entity.MsgPresenceUpdate, &cp, c.UserID, room.sessionID, now)
	dead := room.broadcastLocked(msg, connectionID)
	room.mu.Unlock()

	s.persist("presence.save", func() error { return s.repos.Presence.Save(ctx, &cp) })
	s.dropDead(ctx, dead)
	return nil
}

// UpdateCursor 覆盖光标状态并广播
// 光标移动视为正在编辑：在线状态同步置为 editing、当前文件改为光标所在文件
func (s *RoomService) UpdateCursor(ctx context.Context, connectionID string, req *in.CursorUpdateRequest) error {
	if req.FileName == "" {
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
	cursor := &entity.CursorState{
		ConnectionID:   connectionID,
		UserID:         c.UserID,
		FileName:       req.FileName,
		Line:           req.Line,
		Column:         req.Column,
		SelectionStart: req.SelectionStart,
		SelectionEnd:   req.SelectionEnd,
		Color:          s.colors.ColorFor(c.UserID),
		Visible:        true,
		UpdatedAt:      now,
	}
	room.cursors[connectionID] = cursor

	var presCopy *entity.UserPresenceState
	if pres := room.presence[connectionID]; pres != nil {
		pres.Status = entity.PresenceStatusEditing
		pres.CurrentFile = req.FileName
		pres.LastActiveAt = now
		cp := *pres
		presCopy = &cp
	}
	room.touchLocked(now)

	cursorCopy := *cursor
	msg := entity.NewServerMessage(entity.MsgCursorUpdate, &cursorCopy, c.UserID, room.sessionID, now)
	dead := room.broadcastLocked(msg, connectionID)
	room.mu.Unlock()

	s.persist("cursor.save", func() error { return s.repos.Cursors.Save(ctx, &cursorCopy) })
	if presCopy != nil {
		s.persist("presence.save", func() error { return s.repos.Presence.Save(ctx, presCopy) })
	}
	s.dropDead(ctx, dead)
	return nil
}

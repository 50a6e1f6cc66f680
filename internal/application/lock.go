package application

import (
	"context"

	"github.com/EthanQC/collab/internal/domain/entity"
)

// AcquireLock 申请文件锁
// 同一文件已有锁就拒绝，不区分锁类型——shared 收下来存着，冲突判定上等同 exclusive；
// 拒绝只通知请求方，授予广播给全房间
func (s *RoomService) AcquireLock(ctx context.Context, connectionID, fileName string, lockType entity.LockType) (bool, error) {
	if fileName == "" {
		return false, ErrMissingFileName
	}
	if lockType == "" {
		lockType = entity.LockTypeExclusive
	}
	c, room := s.lookup(connectionID)
	if c == nil {
		return false, ErrUnknownConnection
	}
	if room == nil {
		return false, ErrRoomNotFound
	}

	now := s.clock.Now()
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return false, ErrRoomNotFound
	}

	if existing := room.locks[fileName]; existing != nil {
		deny := entity.NewServerMessage(entity.MsgFileLockDenied,
			&entity.FileLockDeniedPayload{
				FileName: fileName,
				LockedBy: existing.HolderID,
				Reason:   "file is already locked",
			},
			c.UserID, room.sessionID, now)
		sendErr := c.Send(deny)
		room.touchLocked(now)
		room.mu.Unlock()
		if sendErr != nil {
			s.dropDead(ctx, []string{connectionID})
		}
		return false, nil
	}

	lock := &entity.FileLock{
		SessionID:  room.sessionID,
		FileName:   fileName,
		Type:       lockType,
		HolderID:   c.UserID,
		AcquiredAt: now,
	}
	room.locks[fileName] = lock
	room.touchLocked(now)

	cp := *lock
	msg := entity.NewServerMessage(entity.MsgFileLocked, &cp, c.UserID, room.sessionID, now)
	dead := room.broadcastLocked(msg)
	room.mu.Unlock()

	s.persist("lock.create", func() error { return s.repos.Locks.Create(ctx, &cp) })
	s.dropDead(ctx, dead)
	return true, nil
}

// ReleaseLock 释放文件锁
// 只有当前持有者的请求会生效，其余请求静默忽略；释放成功广播给全房间
func (s *RoomService) ReleaseLock(ctx context.Context, connectionID, fileName string) error {
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
	existing := room.locks[fileName]
	if existing == nil || existing.HolderID != c.UserID {
		room.mu.Unlock()
		return nil
	}
	delete(room.locks, fileName)
	room.touchLocked(now)

	msg := entity.NewServerMessage(entity.MsgFileUnlocked,
		&entity.FileUnlockedPayload{FileName: fileName, UnlockedBy: c.UserID},
		c.UserID, room.sessionID, now)
	dead := room.broadcastLocked(msg)
	sessionID := room.sessionID
	room.mu.Unlock()

	s.persist("lock.remove", func() error { return s.repos.Locks.Remove(ctx, sessionID, fileName) })
	s.dropDead(ctx, dead)
	return nil
}

package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/EthanQC/collab/internal/ports/in"
)

// ReapIdleRooms 回收空闲超时的房间
// 这是唯一会扫描全局房间表的路径：强制关掉成员连接、删房间、会话标记结束
func (s *RoomService) ReapIdleRooms(ctx context.Context) int {
	now := s.clock.Now()
	reaped := 0

	for _, room := range s.rooms.allRooms() {
		room.mu.Lock()
		if room.closed || now.Sub(room.lastActive) < s.cfg.IdleTimeout {
			room.mu.Unlock()
			continue
		}
		room.closed = true
		conns := make([]*Connection, 0, len(room.conns))
		connIDs := make([]string, 0, len(room.conns))
		for id, c := range room.conns {
			conns = append(conns, c)
			connIDs = append(connIDs, id)
		}
		room.conns = make(map[string]*Connection)
		room.presence = nil
		room.cursors = nil
		room.locks = nil
		room.opBuffer = nil
		sessionID := room.sessionID
		projectID := room.projectID
		s.rooms.dropRoom(room, connIDs)
		room.mu.Unlock()

		for _, c := range conns {
			_ = c.conn.Close()
		}
		for _, id := range connIDs {
			connID := id
			s.persist("presence.remove", func() error { return s.repos.Presence.Remove(ctx, connID) })
			s.persist("cursor.remove", func() error { return s.repos.Cursors.Remove(ctx, connID) })
		}
		s.persist("session.mark_inactive", func() error { return s.repos.Sessions.MarkInactive(ctx, sessionID) })
		s.publishRoomClosed(ctx, projectID, sessionID, "idle", now)

		zap.L().Info("idle room reaped",
			zap.String("project_id", projectID),
			zap.String("session_id", sessionID),
			zap.Int("connections", len(conns)))
		reaped++
	}
	return reaped
}

// Reaper 定时扫描全部房间的清理器
// 周期固定，和任何单个房间的活跃度无关
type Reaper struct {
	usecase  in.RoomUseCase
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewReaper 创建清理器，interval <= 0 时取默认 5 分钟
func NewReaper(usecase in.RoomUseCase, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reaper{
		usecase:  usecase,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动后台扫描
func (r *Reaper) Start() {
	go r.run()
}

func (r *Reaper) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.usecase.ReapIdleRooms(context.Background()); n > 0 {
				zap.L().Info("reap sweep finished", zap.Int("reaped", n))
			}
		case <-r.stop:
			return
		}
	}
}

// Stop 停止扫描并等待后台退出
func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
}

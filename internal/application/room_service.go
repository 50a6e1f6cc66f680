package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/in"
	"github.com/EthanQC/collab/internal/ports/out"
	"github.com/EthanQC/collab/pkg/zlog"
)

var (
	ErrMissingIdentity   = errors.New("project id and user id are required")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrRoomNotFound      = errors.New("room not found")
	ErrInvalidStatus     = errors.New("invalid presence status")
	ErrInvalidOperation  = errors.New("invalid operation type")
	ErrEmptyContent      = errors.New("empty message content")
	ErrMissingFileName   = errors.New("file name is required")
)

// Repositories 存储协作方
// 全部是 call-and-forget：失败只记日志，不重试也不阻塞广播
type Repositories struct {
	Sessions   out.SessionRepository
	Presence   out.PresenceRepository
	Cursors    out.CursorRepository
	Operations out.OperationRepository
	Locks      out.LockRepository
	Chats      out.ChatRepository
}

// Config 房间服务配置
type Config struct {
	OpBufferCap int           // 单文件操作缓冲上限
	IdleTimeout time.Duration // 房间空闲回收阈值
}

const (
	defaultOpBufferCap = 256
	defaultIdleTimeout = 30 * time.Minute
)

// RoomService 协作房间服务
// 进程内唯一持有全部房间和连接注册表，存储与时钟通过依赖注入，
// 测试可以同时跑多个互不干扰的实例
type RoomService struct {
	rooms registry

	repos  Repositories
	users  out.UserDirectory
	events out.EventPublisher
	clock  out.Clock
	colors *colorAssigner
	cfg    Config
}

var _ in.RoomUseCase = (*RoomService)(nil)

// NewRoomService 创建房间服务
func NewRoomService(repos Repositories, users out.UserDirectory, events out.EventPublisher, clock out.Clock, cfg Config) *RoomService {
	if clock == nil {
		clock = out.SystemClock{}
	}
	if cfg.OpBufferCap <= 0 {
		cfg.OpBufferCap = defaultOpBufferCap
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &RoomService{
		rooms:  newRegistry(),
		repos:  repos,
		users:  users,
		events: events,
		clock:  clock,
		colors: newColorAssigner(),
		cfg:    cfg,
	}
}

// Join 加入项目房间
// 房间不存在时惰性创建（只有首个加入者付创建成本），并给新连接回发全量快照
func (s *RoomService) Join(ctx context.Context, projectID, userID string, conn out.ClientConn) (*entity.RoomSnapshot, error) {
	if projectID == "" || userID == "" {
		return nil, ErrMissingIdentity
	}

	// 身份查询在进房间之前做，查不到就用用户 ID 兜底
	username, avatar := s.displayProfile(ctx, userID)
	color := s.colors.ColorFor(userID)
	now := s.clock.Now()

	c := &Connection{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		JoinedAt:  now,
		conn:      conn,
	}

	room, created := s.rooms.findOrCreate(projectID, func() *Room {
		return newRoom(projectID, uuid.NewString(), now)
	})

	room.mu.Lock()
	if room.closed {
		// 房间刚被回收，极小概率的竞态，让客户端重试
		room.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	s.rooms.addConn(c)
	room.conns[c.ID] = c
	pres := &entity.UserPresenceState{
		ConnectionID: c.ID,
		UserID:       userID,
		Username:     username,
		AvatarURL:    avatar,
		Status:       entity.PresenceStatusOnline,
		Color:        color,
		LastActiveAt: now,
	}
	room.presence[c.ID] = pres
	room.touchLocked(now)

	snap := room.snapshotLocked(c.ID, color)
	sessionID := room.sessionID

	joined := entity.NewServerMessage(entity.MsgUserJoined, &entity.UserJoinedPayload{User: pres}, userID, sessionID, now)
	dead := room.broadcastLocked(joined, c.ID)

	welcome := entity.NewServerMessage(entity.MsgRoomJoined, snap, userID, sessionID, now)
	if err := c.Send(welcome); err != nil {
		dead = append(dead, c.ID)
	}
	room.mu.Unlock()

	if created {
		zap.L().Info("room created",
			zap.String("project_id", projectID),
			zap.String("session_id", sessionID))
		s.persist("session.create", func() error {
			return s.repos.Sessions.Create(ctx, &entity.CollabSession{
				ID:        sessionID,
				ProjectID: projectID,
				Active:    true,
				StartedAt: now,
			})
		})
		s.publishRoomCreated(ctx, projectID, sessionID, userID, now)
	}
	s.persist("presence.save", func() error {
		cp := *pres
		return s.repos.Presence.Save(ctx, &cp)
	})

	s.dropDead(ctx, dead)
	return snap, nil
}

// Leave 离开房间，对未知连接幂等
func (s *RoomService) Leave(ctx context.Context, connectionID string) {
	pending := []string{connectionID}
	for len(pending) > 0 {
		id := pending[0]
		pending = append(pending[1:], s.removeConnection(ctx, id)...)
	}
}

// removeConnection 把一条连接从所有房间状态里摘掉并释放其用户持有的锁
// 返回清理期间广播发送失败的连接，调用方继续剔除
func (s *RoomService) removeConnection(ctx context.Context, connectionID string) []string {
	c, room := s.rooms.removeConn(connectionID)
	if c == nil {
		return nil
	}

	var (
		dead      []string
		unlocked  []string
		emptied   bool
		sessionID string
	)
	now := s.clock.Now()

	if room != nil {
		room.mu.Lock()
		if _, ok := room.conns[connectionID]; ok {
			sessionID = room.sessionID
			delete(room.conns, connectionID)
			delete(room.presence, connectionID)
			delete(room.cursors, connectionID)

			// 释放该用户持有的全部锁，每个释放单独广播
			for file, lk := range room.locks {
				if lk.HolderID != c.UserID {
					continue
				}
				delete(room.locks, file)
				unlocked = append(unlocked, file)
				msg := entity.NewServerMessage(entity.MsgFileUnlocked,
					&entity.FileUnlockedPayload{FileName: file, UnlockedBy: c.UserID},
					c.UserID, sessionID, now)
				dead = append(dead, room.broadcastLocked(msg)...)
			}

			left := entity.NewServerMessage(entity.MsgUserLeft,
				&entity.UserLeftPayload{UserID: c.UserID, ConnectionID: connectionID},
				c.UserID, sessionID, now)
			dead = append(dead, room.broadcastLocked(left)...)

			room.touchLocked(now)
			if len(room.conns) == 0 {
				room.closed = true
				emptied = true
				s.rooms.deleteRoom(room.projectID)
			}
		}
		room.mu.Unlock()
	}

	_ = c.conn.Close()

	s.persist("presence.remove", func() error { return s.repos.Presence.Remove(ctx, connectionID) })
	s.persist("cursor.remove", func() error { return s.repos.Cursors.Remove(ctx, connectionID) })
	for _, file := range unlocked {
		f := file
		s.persist("lock.remove", func() error { return s.repos.Locks.Remove(ctx, sessionID, f) })
	}
	if emptied {
		zap.L().Info("room closed",
			zap.String("project_id", c.ProjectID),
			zap.String("session_id", sessionID),
			zap.String("reason", "empty"))
		s.persist("session.mark_inactive", func() error { return s.repos.Sessions.MarkInactive(ctx, sessionID) })
		s.publishRoomClosed(ctx, c.ProjectID, sessionID, "empty", now)
	}
	return dead
}

// lookup 找到连接及其房间
func (s *RoomService) lookup(connectionID string) (*Connection, *Room) {
	return s.rooms.lookup(connectionID)
}

// dropDead 剔除广播途中发现的坏连接
// 坏连接只剔除不重试，这是本服务唯一的自愈行为
func (s *RoomService) dropDead(ctx context.Context, ids []string) {
	for _, id := range ids {
		zlog.C(ctx).Warn("dropping unresponsive connection", zap.String("connection_id", id))
		s.Leave(ctx, id)
	}
}

// persist 存储调用的统一外壳：失败记日志，不重试
func (s *RoomService) persist(op string, fn func() error) {
	if err := fn(); err != nil {
		zap.L().Error("storage call failed", zap.String("op", op), zap.Error(err))
	}
}

// displayProfile 查用户展示信息，目录不可用时退化为用户 ID
func (s *RoomService) displayProfile(ctx context.Context, userID string) (username, avatar string) {
	if s.users == nil {
		return userID, ""
	}
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		zlog.C(ctx).Warn("user directory lookup failed", zap.String("user_id", userID), zap.Error(err))
		return userID, ""
	}
	if profile == nil || profile.Username == "" {
		return userID, ""
	}
	return profile.Username, profile.AvatarURL
}

func (s *RoomService) publishRoomCreated(ctx context.Context, projectID, sessionID, userID string, now time.Time) {
	if s.events == nil {
		return
	}
	event := &out.RoomCreatedEvent{
		ProjectID: projectID,
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now.Unix(),
	}
	if err := s.events.PublishRoomCreated(ctx, event); err != nil {
		zap.L().Error("publish room created event failed", zap.Error(err))
	}
}

func (s *RoomService) publishRoomClosed(ctx context.Context, projectID, sessionID, reason string, now time.Time) {
	if s.events == nil {
		return
	}
	event := &out.RoomClosedEvent{
		ProjectID: projectID,
		SessionID: sessionID,
		Reason:    reason,
		ClosedAt:  now.Unix(),
	}
	if err := s.events.PublishRoomClosed(ctx, event); err != nil {
		zap.L().Error("publish room closed event failed", zap.Error(err))
	}
}

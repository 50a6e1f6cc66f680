package application

import (
	"sync"
	"time"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/out"
)

// Connection 一条活跃的客户端连接
// 生命周期内绑定唯一的 (用户, 项目, 下行通道) 三元组
type Connection struct {
	ID        string
	UserID    string
	ProjectID string
	JoinedAt  time.Time

	conn out.ClientConn
}

// Send 透传到下行通道
func (c *Connection) Send(msg *entity.ServerMessage) error {
	return c.conn.Send(msg)
}

// Room 一个项目的协作房间，持有该项目全部共享状态
// 原实现跑在单线程事件循环上，这里用每房间一把互斥锁还原同样的串行化语义：
// 持锁期间先改内存再广播，落库放在锁外
type Room struct {
	mu sync.Mutex

	projectID string
	sessionID string

	conns    map[string]*Connection              // connectionID -> 连接
	presence map[string]*entity.UserPresenceState // connectionID -> 在线状态
	cursors  map[string]*entity.CursorState       // connectionID -> 光标
	locks    map[string]*entity.FileLock          // fileName -> 锁
	opBuffer map[string][]*entity.EditOperation   // fileName -> 按时间戳升序的操作缓冲

	chatSeq    uint64
	lastActive time.Time
	closed     bool
}

func newRoom(projectID, sessionID string, now time.Time) *Room {
	return &Room{
		projectID:  projectID,
		sessionID:  sessionID,
		conns:      make(map[string]*Connection),
		presence:   make(map[string]*entity.UserPresenceState),
		cursors:    make(map[string]*entity.CursorState),
		locks:      make(map[string]*entity.FileLock),
		opBuffer:   make(map[string][]*entity.EditOperation),
		lastActive: now,
	}
}

// touchLocked 刷新最后活跃时间，调用方必须持有 r.mu
func (r *Room) touchLocked(now time.Time) {
	r.lastActive = now
}

// broadcastLocked 把消息发给房间内除 exclude 外的所有连接
// 返回发送失败的连接 ID，由调用方在锁外完成剔除；调用方必须持有 r.mu
func (r *Room) broadcastLocked(msg *entity.ServerMessage, exclude ...string) []string {
	var dead []string
	for id, c := range r.conns {
		skip := false
		for _, ex := range exclude {
			if id == ex {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if err := c.Send(msg); err != nil {
			dead = append(dead, id)
		}
	}
	return dead
}

// snapshotLocked 生成房间全量快照，调用方必须持有 r.mu
func (r *Room) snapshotLocked(connectionID, userColor string) *entity.RoomSnapshot {
	snap := &entity.RoomSnapshot{
		RoomID:        r.projectID,
		SessionID:     r.sessionID,
		ConnectionID:  connectionID,
		UserColor:     userColor,
		Participants:  make([]*entity.UserPresenceState, 0, len(r.presence)),
		ActiveCursors: make([]*entity.CursorState, 0, len(r.cursors)),
		FileLocks:     make([]*entity.FileLock, 0, len(r.locks)),
	}
	for _, p := range r.presence {
		cp := *p
		snap.Participants = append(snap.Participants, &cp)
	}
	for _, cur := range r.cursors {
		cp := *cur
		snap.ActiveCursors = append(snap.ActiveCursors, &cp)
	}
	for _, lk := range r.locks {
		cp := *lk
		snap.FileLocks = append(snap.FileLocks, &cp)
	}
	return snap
}

package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/EthanQC/collab/internal/domain/entity"
)

// fakeClock 可手动推进的假时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeConn 记录下行消息的假连接
type fakeConn struct {
	mu       sync.Mutex
	msgs     []*entity.ServerMessage
	closed   bool
	failSend bool
}

func (c *fakeConn) Send(msg *entity.ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("send failed")
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ofType 返回收到的某一类型的全部消息
func (c *fakeConn) ofType(msgType string) []*entity.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*entity.ServerMessage
	for _, m := range c.msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) lastOfType(msgType string) *entity.ServerMessage {
	msgs := c.ofType(msgType)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// fakeStore 内存版存储协作方，同时实现全部仓储接口
type fakeStore struct {
	mu        sync.Mutex
	sessions  map[string]*entity.CollabSession
	inactive  []string
	presences map[string]*entity.UserPresenceState
	cursors   map[string]*entity.CursorState
	ops       [][2]*entity.EditOperation
	locks     map[string]*entity.FileLock
	chats     []*entity.ChatMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:  make(map[string]*entity.CollabSession),
		presences: make(map[string]*entity.UserPresenceState),
		cursors:   make(map[string]*entity.CursorState),
		locks:     make(map[string]*entity.FileLock),
	}
}

func (s *fakeStore) Create(ctx context.Context, session *entity.CollabSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeStore) MarkInactive(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inactive = append(s.inactive, sessionID)
	return nil
}

func (s *fakeStore) Save(ctx context.Context, presence *entity.UserPresenceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presences[presence.ConnectionID] = presence
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.presences, connectionID)
	delete(s.cursors, connectionID)
	return nil
}

// fakeCursorStore 光标仓储单独一个类型，避免和 PresenceRepository 的方法集冲突
type fakeCursorStore struct {
	store *fakeStore
}

func (s *fakeCursorStore) Save(ctx context.Context, cursor *entity.CursorState) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.cursors[cursor.ConnectionID] = cursor
	return nil
}

func (s *fakeCursorStore) Remove(ctx context.Context, connectionID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.cursors, connectionID)
	return nil
}

func (s *fakeStore) CreateOperation(original, transformed *entity.EditOperation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, [2]*entity.EditOperation{original, transformed})
}

// fakeOperationStore 编辑操作仓储
type fakeOperationStore struct {
	store *fakeStore
}

func (s *fakeOperationStore) Create(ctx context.Context, original, transformed *entity.EditOperation) error {
	s.store.CreateOperation(original, transformed)
	return nil
}

// fakeLockStore 文件锁仓储
type fakeLockStore struct {
	store *fakeStore
}

func (s *fakeLockStore) Create(ctx context.Context, lock *entity.FileLock) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.locks[lock.SessionID+"/"+lock.FileName] = lock
	return nil
}

func (s *fakeLockStore) Remove(ctx context.Context, sessionID, fileName string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.locks, sessionID+"/"+fileName)
	return nil
}

// fakeChatStore 聊天消息仓储
type fakeChatStore struct {
	store *fakeStore
}

func (s *fakeChatStore) Create(ctx context.Context, msg *entity.ChatMessage) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.chats = append(s.store.chats, msg)
	return nil
}

func (s *fakeStore) lockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func (s *fakeStore) chatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

func (s *fakeStore) opCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

func (s *fakeStore) lastOp() [2]*entity.EditOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops[len(s.ops)-1]
}

func (s *fakeStore) inactiveSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inactive...)
}

// newTestService 组装一套互不共享状态的被测服务
func newTestService() (*RoomService, *fakeStore, *fakeClock) {
	store := newFakeStore()
	clock := newFakeClock()
	repos := Repositories{
		Sessions:   store,
		Presence:   store,
		Cursors:    &fakeCursorStore{store: store},
		Operations: &fakeOperationStore{store: store},
		Locks:      &fakeLockStore{store: store},
		Chats:      &fakeChatStore{store: store},
	}
	svc := NewRoomService(repos, nil, nil, clock, Config{
		OpBufferCap: 256,
		IdleTimeout: 30 * time.Minute,
	})
	return svc, store, clock
}

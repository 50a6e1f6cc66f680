package out

import (
	"context"

	"github.com/EthanQC/collab/internal/domain/entity"
)

// SessionRepository 协作会话仓储接口
type SessionRepository interface {
	// Create 创建会话记录
	Create(ctx context.Context, session *entity.CollabSession) error

	// MarkInactive 标记会话结束
	MarkInactive(ctx context.Context, sessionID string) error
}

// PresenceRepository 在线状态仓储接口（热数据）
type PresenceRepository interface {
	// Save 写入或覆盖连接的在线状态
	Save(ctx context.Context, presence *entity.UserPresenceState) error

	// Remove 删除连接的在线状态
	Remove(ctx context.Context, connectionID string) error
}

// CursorRepository 光标状态仓储接口（热数据）
type CursorRepository interface {
	// Save 写入或覆盖连接的光标状态
	Save(ctx context.Context, cursor *entity.CursorState) error

	// Remove 删除连接的光标状态
	Remove(ctx context.Context, connectionID string) error
}

// OperationRepository 编辑操作仓储接口
type OperationRepository interface {
	// Create 同时落库原始操作和变换后的操作
	Create(ctx context.Context, original, transformed *entity.EditOperation) error
}

// LockRepository 文件锁仓储接口
type LockRepository interface {
	// Create 创建锁记录
	Create(ctx context.Context, lock *entity.FileLock) error

	// Remove 删除锁记录
	Remove(ctx context.Context, sessionID, fileName string) error
}

// ChatRepository 聊天消息仓储接口
type ChatRepository interface {
	// Create 创建消息记录
	Create(ctx context.Context, msg *entity.ChatMessage) error
}

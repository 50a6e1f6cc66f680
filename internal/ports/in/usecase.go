package in

import (
	"context"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/out"
)

// PresenceUpdateRequest 在线状态更新请求
type PresenceUpdateRequest struct {
	Status        entity.PresenceStatus
	CurrentFile   string
	ViewportStart int
	ViewportEnd   int
}

// CursorUpdateRequest 光标更新请求
type CursorUpdateRequest struct {
	FileName       string
	Line           int
	Column         int
	SelectionStart *int
	SelectionEnd   *int
}

// SubmitOperationRequest 编辑操作提交请求
type SubmitOperationRequest struct {
	FileName    string
	Type        entity.OperationType
	Position    entity.Position
	Content     string
	Length      int
	VectorClock map[string]int64
}

// PostChatRequest 聊天消息发送请求
type PostChatRequest struct {
	Content     string
	MessageType entity.ChatMessageType
	FileName    string
	LineNumber  *int
	ReplyTo     string
	Mentions    []string
}

// RoomUseCase 协作房间用例接口
// 所有方法按连接维度调用，房间内的状态变更和广播在同一个逻辑节拍内完成
type RoomUseCase interface {
	// Join 加入项目房间，房间不存在时惰性创建
	// 返回的快照同时会以 room_joined 消息推给新连接
	Join(ctx context.Context, projectID, userID string, conn out.ClientConn) (*entity.RoomSnapshot, error)

	// Leave 离开房间，清理连接的全部房间内状态并释放其持有的锁
	// 对未知连接幂等
	Leave(ctx context.Context, connectionID string)

	// UpdatePresence 更新在线状态并广播给房间内其他人
	UpdatePresence(ctx context.Context, connectionID string, req *PresenceUpdateRequest) error

	// UpdateCursor 更新光标并广播，隐式把状态置为 editing
	UpdateCursor(ctx context.Context, connectionID string, req *CursorUpdateRequest) error

	// SubmitOperation 提交编辑操作，返回位置变换后的操作
	SubmitOperation(ctx context.Context, connectionID string, req *SubmitOperationRequest) (*entity.EditOperation, error)

	// ApplyFileChange 整文件内容替换，清空该文件的操作缓冲后广播
	ApplyFileChange(ctx context.Context, connectionID, fileName, content string) error

	// AcquireLock 申请文件锁，返回是否授予；拒绝时已单独通知请求方
	AcquireLock(ctx context.Context, connectionID, fileName string, lockType entity.LockType) (bool, error)

	// ReleaseLock 释放文件锁，只有持有者的请求会生效
	ReleaseLock(ctx context.Context, connectionID, fileName string) error

	// PostChat 发送聊天消息，先落库再全房间广播（含发送者）
	PostChat(ctx context.Context, connectionID string, req *PostChatRequest) (*entity.ChatMessage, error)

	// ReapIdleRooms 回收空闲超时的房间，返回回收数量
	ReapIdleRooms(ctx context.Context) int
}

package out

import "context"

// RoomCreatedEvent 房间创建事件
type RoomCreatedEvent struct {
	ProjectID string `json:"project_id"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
}

// RoomClosedEvent 房间关闭事件
// Reason 取值：empty（人走光了）/ idle（被清理器回收）
type RoomClosedEvent struct {
	ProjectID string `json:"project_id"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	ClosedAt  int64  `json:"closed_at"`
}

// EventPublisher 房间生命周期事件发布接口
// 发布失败只记日志，不影响房间内的广播
type EventPublisher interface {
	// PublishRoomCreated 发布房间创建事件
	PublishRoomCreated(ctx context.Context, event *RoomCreatedEvent) error

	// PublishRoomClosed 发布房间关闭事件
	PublishRoomClosed(ctx context.Context, event *RoomClosedEvent) error

	// Close 关闭底层生产者
	Close() error
}

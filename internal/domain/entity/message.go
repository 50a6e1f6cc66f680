package entity

import "time"

// 下行消息类型
const (
	MsgRoomJoined     = "room_joined"
	MsgUserJoined     = "user_joined"
	MsgUserLeft       = "user_left"
	MsgCursorUpdate   = "cursor_update"
	MsgEditOperation  = "edit_operation"
	MsgFileChange     = "file_change"
	MsgPresenceUpdate = "presence_update"
	MsgFileLocked     = "file_locked"
	MsgFileLockDenied = "file_lock_denied"
	MsgFileUnlocked   = "file_unlocked"
	MsgChatMessage    = "chat_message"
	MsgPong           = "pong"
	MsgError          = "error"
)

// ServerMessage 下行消息信封
type ServerMessage struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// NewServerMessage 构造信封，时间戳取毫秒
func NewServerMessage(msgType string, payload any, userID, sessionID string, now time.Time) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: now.UnixMilli(),
		UserID:    userID,
		SessionID: sessionID,
	}
}

// RoomSnapshot 加入房间时一次性下发的全量状态
// 让新加入的客户端不用额外请求就能渲染已有协作者
type RoomSnapshot struct {
	RoomID        string               `json:"roomId"`
	SessionID     string               `json:"sessionId"`
	ConnectionID  string               `json:"connectionId"`
	UserColor     string               `json:"userColor"`
	Participants  []*UserPresenceState `json:"participants"`
	ActiveCursors []*CursorState       `json:"activeCursors"`
	FileLocks     []*FileLock          `json:"fileLocks"`
}

// UserJoinedPayload user_joined 载荷
type UserJoinedPayload struct {
	User *UserPresenceState `json:"user"`
}

// UserLeftPayload user_left 载荷
type UserLeftPayload struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

// FileChangePayload file_change 载荷（双向）
type FileChangePayload struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
	UserID   string `json:"userId,omitempty"`
}

// FileLockDeniedPayload file_lock_denied 载荷，只发给请求方
type FileLockDeniedPayload struct {
	FileName string `json:"fileName"`
	LockedBy string `json:"lockedBy"`
	Reason   string `json:"reason"`
}

// FileUnlockedPayload file_unlocked 载荷
type FileUnlockedPayload struct {
	FileName   string `json:"fileName"`
	UnlockedBy string `json:"unlockedBy"`
}

// ErrorPayload error 载荷，只发给出错的连接
type ErrorPayload struct {
	Message string `json:"message"`
}

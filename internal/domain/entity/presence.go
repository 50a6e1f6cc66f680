package entity

import "time"

// PresenceStatus 在线状态枚举
type PresenceStatus string

const (
	PresenceStatusOnline  PresenceStatus = "online"
	PresenceStatusAway    PresenceStatus = "away"
	PresenceStatusEditing PresenceStatus = "editing"
	PresenceStatusIdle    PresenceStatus = "idle"
)

// Valid 校验状态值是否合法
func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceStatusOnline, PresenceStatusAway, PresenceStatusEditing, PresenceStatusIdle:
		return true
	}
	return false
}

// UserPresenceState 房间内单个连接的在线状态
// 由 presence_update 显式修改，光标移动和编辑操作会隐式把状态置为 editing
type UserPresenceState struct {
	ConnectionID  string         `json:"connectionId"`
	UserID        string         `json:"userId"`
	Username      string         `json:"username"`
	AvatarURL     string         `json:"avatarUrl,omitempty"`
	Status        PresenceStatus `json:"status"`
	CurrentFile   string         `json:"currentFile,omitempty"`
	ViewportStart int            `json:"viewportStart,omitempty"`
	ViewportEnd   int            `json:"viewportEnd,omitempty"`
	Color         string         `json:"color"`
	LastActiveAt  time.Time      `json:"lastActiveAt"`
}

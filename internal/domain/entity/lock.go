package entity

import "time"

// LockType 文件锁类型
// shared 作为输入被接受，但冲突判定上与 exclusive 完全一致
type LockType string

const (
	LockTypeExclusive LockType = "exclusive"
	LockTypeShared    LockType = "shared"
)

// FileLock 房间内的文件锁
// 不变式：同一房间同一文件名同一时刻至多存在一条锁记录
type FileLock struct {
	SessionID  string     `json:"sessionId"`
	FileName   string     `json:"fileName"`
	Type       LockType   `json:"lockType"`
	HolderID   string     `json:"holderId"`
	AcquiredAt time.Time  `json:"acquiredAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

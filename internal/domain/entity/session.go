package entity

import "time"

// CollabSession 协作会话
// 一个项目房间从首个用户加入到房间销毁对应一条会话记录
type CollabSession struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"projectId"`
	Active    bool       `json:"active"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

package entity

import "time"

// CursorState 单个连接的光标状态，每次 cursor_update 整体覆盖
type CursorState struct {
	ConnectionID   string    `json:"connectionId"`
	UserID         string    `json:"userId"`
	FileName       string    `json:"fileName"`
	Line           int       `json:"line"`
	Column         int       `json:"column"`
	SelectionStart *int      `json:"selectionStart,omitempty"`
	SelectionEnd   *int      `json:"selectionEnd,omitempty"`
	Color          string    `json:"color"`
	Visible        bool      `json:"visible"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

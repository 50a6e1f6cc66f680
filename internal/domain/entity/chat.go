package entity

import "time"

// ChatMessageType 聊天消息类型
type ChatMessageType string

const (
	ChatMessageText       ChatMessageType = "text"
	ChatMessageAnnotation ChatMessageType = "annotation"
)

// ChatMessage 房间内的聊天/批注消息
// 先落库再广播，Seq 在房间内单调递增
type ChatMessage struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"sessionId"`
	UserID      string          `json:"userId"`
	Username    string          `json:"username"`
	Color       string          `json:"color"`
	Content     string          `json:"content"`
	MessageType ChatMessageType `json:"messageType"`
	FileName    string          `json:"fileName,omitempty"`
	LineNumber  *int            `json:"lineNumber,omitempty"`
	ReplyTo     string          `json:"replyTo,omitempty"`
	Mentions    []string        `json:"mentions,omitempty"`
	Seq         uint64          `json:"seq"`
	CreatedAt   time.Time       `json:"createdAt"`
}

package entity

import "time"

// OperationType 编辑操作类型
type OperationType string

const (
	OperationInsert  OperationType = "insert"
	OperationDelete  OperationType = "delete"
	OperationReplace OperationType = "replace"
)

// Valid 校验操作类型是否合法
func (t OperationType) Valid() bool {
	switch t {
	case OperationInsert, OperationDelete, OperationReplace:
		return true
	}
	return false
}

// Position 文件内位置（行、列，均从 0 开始）
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// EditOperation 一次编辑操作
// 进入房间缓冲后不可变，位置变换只作用在副本上
// Timestamp 是服务端到达时间，也是变换排序的唯一依据；
// VectorClock 是客户端带上来的因果令牌，只落库不参与排序
type EditOperation struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"sessionId"`
	ConnectionID string           `json:"connectionId"`
	UserID       string           `json:"userId"`
	FileName     string           `json:"fileName"`
	Type         OperationType    `json:"operationType"`
	Position     Position         `json:"position"`
	Content      string           `json:"content,omitempty"`
	Length       int              `json:"length,omitempty"`
	VectorClock  map[string]int64 `json:"vectorClock,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Clone 返回操作的浅拷贝，供位置变换使用
func (op *EditOperation) Clone() *EditOperation {
	dup := *op
	return &dup
}

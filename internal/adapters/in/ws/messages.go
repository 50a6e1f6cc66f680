package ws

import "encoding/json"

// 上行消息类型
const (
	inCursorUpdate   = "cursor_update"
	inEditOperation  = "edit_operation"
	inFileChange     = "file_change"
	inPresenceUpdate = "presence_update"
	inFileLock       = "file_lock"
	inFileUnlock     = "file_unlock"
	inChatMessage    = "chat_message"
	inPing           = "ping"
)

// clientEnvelope 上行消息信封
// userId / sessionId 客户端会带，但身份以连接登记时的为准，这里不采信
type clientEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	UserID    string          `json:"userId"`
	SessionID string          `json:"sessionId"`
}

// cursorUpdatePayload cursor_update 载荷
type cursorUpdatePayload struct {
	FileName       string `json:"fileName"`
	Line           int    `json:"line"`
	Column         int    `json:"column"`
	SelectionStart *int   `json:"selectionStart"`
	SelectionEnd   *int   `json:"selectionEnd"`
}

// editOperationPayload edit_operation 载荷
type editOperationPayload struct {
	FileName      string           `json:"fileName"`
	OperationType string           `json:"operationType"`
	Position      positionPayload  `json:"position"`
	Content       string           `json:"content"`
	Length        int              `json:"length"`
	VectorClock   map[string]int64 `json:"vectorClock"`
}

type positionPayload struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// fileChangePayload file_change 载荷
type fileChangePayload struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

// presenceUpdatePayload presence_update 载荷
type presenceUpdatePayload struct {
	Status        string `json:"status"`
	CurrentFile   string `json:"currentFile"`
	ViewportStart int    `json:"viewportStart"`
	ViewportEnd   int    `json:"viewportEnd"`
}

// fileLockPayload file_lock 载荷
type fileLockPayload struct {
	FileName string `json:"fileName"`
	LockType string `json:"lockType"`
}

// fileUnlockPayload file_unlock 载荷
type fileUnlockPayload struct {
	FileName string `json:"fileName"`
}

// chatMessagePayload chat_message 载荷
type chatMessagePayload struct {
	Content     string   `json:"content"`
	MessageType string   `json:"messageType"`
	FileName    string   `json:"fileName"`
	LineNumber  *int     `json:"lineNumber"`
	ReplyTo     string   `json:"replyTo"`
	Mentions    []string `json:"mentions"`
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/out"
)

// ChatMessageModel GORM模型
type ChatMessageModel struct {
	ID          string        `gorm:"column:id;type:varchar(36);primaryKey"`
	SessionID   string        `gorm:"column:session_id;type:varchar(36);not null;index"`
	UserID      string        `gorm:"column:user_id;type:varchar(64);not null"`
	Username    string        `gorm:"column:username;type:varchar(128)"`
	Content     string        `gorm:"column:content;type:text;not null"`
	MessageType string        `gorm:"column:message_type;type:varchar(16);not null"`
	FileName    string        `gorm:"column:file_name;type:varchar(512)"`
	LineNumber  sql.NullInt64 `gorm:"column:line_number"`
	ReplyTo     string        `gorm:"column:reply_to;type:varchar(36)"`
	Mentions    string        `gorm:"column:mentions;type:json"`
	Seq         uint64        `gorm:"column:seq;not null"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
}

func (ChatMessageModel) TableName() string {
	return "chat_messages"
}

// ChatRepositoryMySQL MySQL聊天消息仓储实现
type ChatRepositoryMySQL struct {
	db *gorm.DB
}

func NewChatRepositoryMySQL(db *gorm.DB) out.ChatRepository {
	return &ChatRepositoryMySQL{db: db}
}

func (r *ChatRepositoryMySQL) Create(ctx context.Context, msg *entity.ChatMessage) error {
	var lineNumber sql.NullInt64
	if msg.LineNumber != nil {
		lineNumber = sql.NullInt64{Int64: int64(*msg.LineNumber), Valid: true}
	}
	mentionBytes, _ := json.Marshal(msg.Mentions)
	model := &ChatMessageModel{
		ID:          msg.ID,
		SessionID:   msg.SessionID,
		UserID:      msg.UserID,
		Username:    msg.Username,
		Content:     msg.Content,
		MessageType: string(msg.MessageType),
		FileName:    msg.FileName,
		LineNumber:  lineNumber,
		ReplyTo:     msg.ReplyTo,
		Mentions:    string(mentionBytes),
		Seq:         msg.Seq,
		CreatedAt:   msg.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

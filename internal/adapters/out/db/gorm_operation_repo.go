package db

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/out"
)

// EditOperationModel GORM模型
// 一行同时存原始位置和变换后位置，方便事后排查变换结果
type EditOperationModel struct {
	ID                string    `gorm:"column:id;type:varchar(36);primaryKey"`
	SessionID         string    `gorm:"column:session_id;type:varchar(36);not null;index"`
	ConnectionID      string    `gorm:"column:connection_id;type:varchar(36);not null"`
	UserID            string    `gorm:"column:user_id;type:varchar(64);not null;index"`
	FileName          string    `gorm:"column:file_name;type:varchar(512);not null"`
	OperationType     string    `gorm:"column:operation_type;type:varchar(16);not null"`
	Line              int       `gorm:"column:line;not null"`
	Column            int       `gorm:"column:col;not null"`
	TransformedLine   int       `gorm:"column:transformed_line;not null"`
	TransformedColumn int       `gorm:"column:transformed_col;not null"`
	Content           string    `gorm:"column:content;type:text"`
	Length            int       `gorm:"column:length"`
	VectorClock       string    `gorm:"column:vector_clock;type:json"`
	Timestamp         time.Time `gorm:"column:ts;not null;index"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (EditOperationModel) TableName() string {
	return "edit_operations"
}

// OperationRepositoryMySQL MySQL编辑操作仓储实现
type OperationRepositoryMySQL struct {
	db *gorm.DB
}

func NewOperationRepositoryMySQL(db *gorm.DB) out.OperationRepository {
	return &OperationRepositoryMySQL{db: db}
}

func (r *OperationRepositoryMySQL) Create(ctx context.Context, original, transformed *entity.EditOperation) error {
	clockBytes, _ := json.Marshal(original.VectorClock)
	model := &EditOperationModel{
		ID:                original.ID,
		SessionID:         original.SessionID,
		ConnectionID:      original.ConnectionID,
		UserID:            original.UserID,
		FileName:          original.FileName,
		OperationType:     string(original.Type),
		Line:              original.Position.Line,
		Column:            original.Position.Column,
		TransformedLine:   transformed.Position.Line,
		TransformedColumn: transformed.Position.Column,
		Content:           original.Content,
		Length:            original.Length,
		VectorClock:       string(clockBytes),
		Timestamp:         original.Timestamp,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

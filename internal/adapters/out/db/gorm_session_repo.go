package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/out"
)

// SessionModel GORM模型
type SessionModel struct {
	ID        string     `gorm:"column:id;type:varchar(36);primaryKey"`
	ProjectID string     `gorm:"column:project_id;type:varchar(64);not null;index"`
	Active    bool       `gorm:"column:active;not null;default:true"`
	StartedAt time.Time  `gorm:"column:started_at;not null"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
}

func (SessionModel) TableName() string {
	return "collab_sessions"
}

// SessionRepositoryMySQL MySQL会话仓储实现
type SessionRepositoryMySQL struct {
	db *gorm.DB
}

func NewSessionRepositoryMySQL(db *gorm.DB) out.SessionRepository {
	return &SessionRepositoryMySQL{db: db}
}

func (r *SessionRepositoryMySQL) Create(ctx context.Context, session *entity.CollabSession) error {
	model := &SessionModel{
		ID:        session.ID,
		ProjectID: session.ProjectID,
		Active:    session.Active,
		StartedAt: session.StartedAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *SessionRepositoryMySQL) MarkInactive(ctx context.Context, sessionID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{"active": false, "ended_at": &now}).Error
}
